package user

import (
	"context"
	"errors"
)

type MockUserRepository struct {
	Users      []User
	shouldFail bool
	deletedIDs []string
}

func (m *MockUserRepository) Create(_ context.Context, user *User) error {
	if m.shouldFail {
		return errors.New("repository error")
	}
	m.Users = append(m.Users, *user)
	return nil
}

func (m *MockUserRepository) ExistsByUsernameOrEmail(_ context.Context, username, email string) (bool, error) {
	if m.shouldFail {
		return false, errors.New("repository error")
	}
	for _, u := range m.Users {
		if u.Username == username || u.Email == email {
			return true, nil
		}
	}
	return false, nil
}

func (m *MockUserRepository) FindByEmail(_ context.Context, email string) (*User, error) {
	if m.shouldFail {
		return nil, errors.New("repository error")
	}
	for i := range m.Users {
		if m.Users[i].Email == email {
			return &m.Users[i], nil
		}
	}
	return nil, ErrUserNotFound
}

func (m *MockUserRepository) FindByUsername(_ context.Context, username string) (*User, error) {
	if m.shouldFail {
		return nil, errors.New("repository error")
	}
	for i := range m.Users {
		if m.Users[i].Username == username {
			return &m.Users[i], nil
		}
	}
	return nil, ErrUserNotFound
}

func (m *MockUserRepository) FindByEmails(_ context.Context, emails []string) ([]User, error) {
	if m.shouldFail {
		return nil, errors.New("repository error")
	}
	found := []User{}
	for _, u := range m.Users {
		for _, email := range emails {
			if u.Email == email {
				found = append(found, u)
				break
			}
		}
	}
	return found, nil
}

func (m *MockUserRepository) FindAll(_ context.Context) ([]User, error) {
	if m.shouldFail {
		return nil, errors.New("repository error")
	}
	return m.Users, nil
}

func (m *MockUserRepository) UpdateRefreshToken(_ context.Context, userID, refreshToken string) error {
	for i := range m.Users {
		if m.Users[i].ID == userID {
			m.Users[i].RefreshToken = refreshToken
			return nil
		}
	}
	return ErrUserNotFound
}

func (m *MockUserRepository) DeleteByID(_ context.Context, userID string) (*DeletionResult, error) {
	for i := range m.Users {
		if m.Users[i].ID == userID {
			m.Users = append(m.Users[:i], m.Users[i+1:]...)
			m.deletedIDs = append(m.deletedIDs, userID)
			return &DeletionResult{DeletedTransactions: 2, DeletedFromGroup: true}, nil
		}
	}
	return nil, ErrUserNotFound
}
