package group

import (
	"context"
	"errors"
	"slices"

	"github.com/sebuszqo/ezwallet/internal/email"
	"github.com/sebuszqo/ezwallet/internal/user"
)

type MockGroupRepository struct {
	Groups     []Group
	shouldFail bool
}

func (m *MockGroupRepository) Create(_ context.Context, group *Group) error {
	if m.shouldFail {
		return errors.New("repository error")
	}
	m.Groups = append(m.Groups, *group)
	return nil
}

func (m *MockGroupRepository) FindByName(_ context.Context, name string) (*Group, error) {
	if m.shouldFail {
		return nil, errors.New("repository error")
	}
	for i := range m.Groups {
		if m.Groups[i].Name == name {
			group := m.Groups[i]
			group.Members = slices.Clone(group.Members)
			return &group, nil
		}
	}
	return nil, ErrGroupNotFound
}

func (m *MockGroupRepository) FindAll(_ context.Context) ([]Group, error) {
	if m.shouldFail {
		return nil, errors.New("repository error")
	}
	return m.Groups, nil
}

func (m *MockGroupRepository) Delete(_ context.Context, name string) error {
	for i := range m.Groups {
		if m.Groups[i].Name == name {
			m.Groups = append(m.Groups[:i], m.Groups[i+1:]...)
			return nil
		}
	}
	return ErrGroupNotFound
}

func (m *MockGroupRepository) AddMembers(_ context.Context, name string, members []Member) error {
	if m.shouldFail {
		return errors.New("repository error")
	}
	for i := range m.Groups {
		if m.Groups[i].Name == name {
			m.Groups[i].Members = append(m.Groups[i].Members, members...)
			return nil
		}
	}
	return ErrGroupNotFound
}

func (m *MockGroupRepository) RemoveMembers(_ context.Context, name string, userIDs []string) error {
	if m.shouldFail {
		return errors.New("repository error")
	}
	for i := range m.Groups {
		if m.Groups[i].Name != name {
			continue
		}
		kept := []Member{}
		for _, member := range m.Groups[i].Members {
			if !slices.Contains(userIDs, member.UserID) {
				kept = append(kept, member)
			}
		}
		if len(kept) == 0 {
			return ErrLastMember
		}
		m.Groups[i].Members = kept
		return nil
	}
	return ErrGroupNotFound
}

type MockUserLookup struct {
	Users []user.User
}

func (m *MockUserLookup) GetUsersByEmails(_ context.Context, emails []string) ([]user.User, error) {
	found := []user.User{}
	for _, u := range m.Users {
		for _, address := range emails {
			if u.Email == address {
				found = append(found, u)
			}
		}
	}
	return found, nil
}

func testUsers() *MockUserLookup {
	return &MockUserLookup{Users: []user.User{
		{ID: "1", Username: "mario", Email: "mario.red@email.com", Role: user.RoleRegular},
		{ID: "2", Username: "luigi", Email: "luigi.green@email.com", Role: user.RoleRegular},
		{ID: "3", Username: "admin", Email: "admin@email.com", Role: user.RoleAdmin},
	}}
}

type queuedEmail struct {
	to   string
	data email.EmailData
}

type MockMailer struct {
	Queued []queuedEmail
}

func (m *MockMailer) QueueEmail(to string, data email.EmailData) {
	m.Queued = append(m.Queued, queuedEmail{to: to, data: data})
}
