package group

import (
	"context"
	"errors"
	"slices"
	"strings"
	"time"

	"github.com/sebuszqo/ezwallet/internal/email"
	"github.com/sebuszqo/ezwallet/internal/user"
)

var (
	ErrMissingFields = errors.New("Group name and member emails are required")
	ErrInvalidEmails = errors.New("One or more emails are not valid")
	ErrGroupExists   = errors.New("A group with the same name already exists")
	ErrGroupNotFound = errors.New("Group not found")
	ErrNoMembers     = errors.New("None of the provided emails belongs to a registered user")
	ErrNoneAdded     = errors.New("All the provided emails either do not exist or are already in the group")
	ErrNoneRemoved   = errors.New("None of the provided emails belongs to a member of the group")
	ErrLastMember    = errors.New("A group must keep at least one member")
)

type Member struct {
	UserID   string `json:"-"`
	Email    string `json:"email"`
	Username string `json:"username,omitempty"`
}

type Group struct {
	Name      string    `json:"name"`
	Members   []Member  `json:"members"`
	CreatedAt time.Time `json:"-"`
}

func (g *Group) MemberEmails() []string {
	emails := make([]string, 0, len(g.Members))
	for _, m := range g.Members {
		emails = append(emails, m.Email)
	}
	return emails
}

// CreationResult is the new group plus the requested emails that matched no user.
type CreationResult struct {
	Group           *Group   `json:"group"`
	MembersNotFound []string `json:"membersNotFound"`
}

// MembershipResult is the group after a membership change plus the emails that were skipped.
type MembershipResult struct {
	Group           *Group   `json:"group"`
	AlreadyInGroup  []string `json:"alreadyInGroup,omitempty"`
	NotInGroup      []string `json:"notInGroup,omitempty"`
	MembersNotFound []string `json:"membersNotFound"`
}

// UserLookup is the part of the user service groups depend on.
type UserLookup interface {
	GetUsersByEmails(ctx context.Context, emails []string) ([]user.User, error)
}

type Service interface {
	CreateGroup(ctx context.Context, creatorEmail, name string, memberEmails []string) (*CreationResult, error)
	GetGroups(ctx context.Context) ([]Group, error)
	GetGroup(ctx context.Context, name string) (*Group, error)
	DeleteGroup(ctx context.Context, name string) error
	AddMembers(ctx context.Context, invitedBy, name string, emails []string) (*MembershipResult, error)
	RemoveMembers(ctx context.Context, name string, emails []string) (*MembershipResult, error)
	GroupMemberEmails(ctx context.Context, name string) ([]string, bool, error)
}

type service struct {
	repo   Repository
	users  UserLookup
	mailer email.EmailSender
}

type Option func(*service)

// WithInvitations emails every member but the creator once a group is created.
func WithInvitations(mailer email.EmailSender) Option {
	return func(s *service) { s.mailer = mailer }
}

func NewGroupService(repo Repository, users UserLookup, opts ...Option) Service {
	s := &service{repo: repo, users: users, mailer: email.NoopSender{}}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateGroup always includes the creator. Emails are deduplicated keeping the first
// occurrence, the creator is appended when not listed.
func (s *service) CreateGroup(ctx context.Context, creatorEmail, name string, memberEmails []string) (*CreationResult, error) {
	name = strings.TrimSpace(name)
	if name == "" || memberEmails == nil {
		return nil, ErrMissingFields
	}

	requested, err := normalizeEmails(memberEmails)
	if err != nil {
		return nil, err
	}
	if creatorEmail != "" && !slices.Contains(requested, creatorEmail) {
		requested = append(requested, creatorEmail)
	}

	if _, err = s.repo.FindByName(ctx, name); err == nil {
		return nil, ErrGroupExists
	} else if !errors.Is(err, ErrGroupNotFound) {
		return nil, err
	}

	byEmail, err := s.usersByEmail(ctx, requested)
	if err != nil {
		return nil, err
	}

	group := &Group{Name: name, Members: []Member{}}
	notFound := []string{}
	for _, address := range requested {
		u, ok := byEmail[address]
		if !ok {
			notFound = append(notFound, address)
			continue
		}
		group.Members = append(group.Members, Member{UserID: u.ID, Email: u.Email, Username: u.Username})
	}
	if len(group.Members) == 0 {
		return nil, ErrNoMembers
	}

	if err := s.repo.Create(ctx, group); err != nil {
		return nil, err
	}
	s.invite(group, creatorEmail)
	return &CreationResult{Group: group, MembersNotFound: notFound}, nil
}

// normalizeEmails trims, validates and deduplicates emails, keeping the first occurrence.
func normalizeEmails(emails []string) ([]string, error) {
	normalized := make([]string, 0, len(emails)+1)
	seen := make(map[string]bool, len(emails))
	for _, address := range emails {
		address = strings.TrimSpace(address)
		if err := user.ValidateEmailAddress(address); err != nil {
			return nil, ErrInvalidEmails
		}
		if !seen[address] {
			seen[address] = true
			normalized = append(normalized, address)
		}
	}
	return normalized, nil
}

func (s *service) usersByEmail(ctx context.Context, emails []string) (map[string]user.User, error) {
	users, err := s.users.GetUsersByEmails(ctx, emails)
	if err != nil {
		return nil, err
	}
	byEmail := make(map[string]user.User, len(users))
	for _, u := range users {
		byEmail[u.Email] = u
	}
	return byEmail, nil
}

// loadForChange validates the request and loads the group whose membership changes.
func (s *service) loadForChange(ctx context.Context, name string, emails []string) (*Group, []string, error) {
	if strings.TrimSpace(name) == "" || len(emails) == 0 {
		return nil, nil, ErrMissingFields
	}
	requested, err := normalizeEmails(emails)
	if err != nil {
		return nil, nil, err
	}
	group, err := s.repo.FindByName(ctx, name)
	if err != nil {
		return nil, nil, err
	}
	return group, requested, nil
}

// AddMembers adds the registered users among emails. Emails already in the group or without a
// user are reported, and the call fails when nobody could be added.
func (s *service) AddMembers(ctx context.Context, invitedBy, name string, emails []string) (*MembershipResult, error) {
	group, requested, err := s.loadForChange(ctx, name, emails)
	if err != nil {
		return nil, err
	}
	byEmail, err := s.usersByEmail(ctx, requested)
	if err != nil {
		return nil, err
	}

	inGroup := make(map[string]bool, len(group.Members))
	for _, m := range group.Members {
		inGroup[m.Email] = true
	}

	result := &MembershipResult{AlreadyInGroup: []string{}, MembersNotFound: []string{}}
	added := []Member{}
	for _, address := range requested {
		switch u, ok := byEmail[address]; {
		case inGroup[address]:
			result.AlreadyInGroup = append(result.AlreadyInGroup, address)
		case !ok:
			result.MembersNotFound = append(result.MembersNotFound, address)
		default:
			added = append(added, Member{UserID: u.ID, Email: u.Email, Username: u.Username})
		}
	}
	if len(added) == 0 {
		return nil, ErrNoneAdded
	}

	if err := s.repo.AddMembers(ctx, group.Name, added); err != nil {
		return nil, err
	}
	group.Members = append(group.Members, added...)
	for _, member := range added {
		s.mailer.QueueEmail(member.Email, email.GroupInvitationData{
			UserName:  member.Username,
			GroupName: group.Name,
			InvitedBy: invitedBy,
		})
	}
	result.Group = group
	return result, nil
}

// RemoveMembers removes the members among emails. A group is never left without members.
func (s *service) RemoveMembers(ctx context.Context, name string, emails []string) (*MembershipResult, error) {
	group, requested, err := s.loadForChange(ctx, name, emails)
	if err != nil {
		return nil, err
	}

	members := make(map[string]Member, len(group.Members))
	for _, m := range group.Members {
		members[m.Email] = m
	}

	result := &MembershipResult{NotInGroup: []string{}, MembersNotFound: []string{}}
	var outsiders []string
	removed := map[string]bool{}
	var userIDs []string
	for _, address := range requested {
		if m, ok := members[address]; ok {
			removed[address] = true
			userIDs = append(userIDs, m.UserID)
			continue
		}
		outsiders = append(outsiders, address)
	}
	if len(userIDs) == 0 {
		return nil, ErrNoneRemoved
	}
	if len(userIDs) >= len(group.Members) {
		return nil, ErrLastMember
	}

	if len(outsiders) > 0 {
		byEmail, err := s.usersByEmail(ctx, outsiders)
		if err != nil {
			return nil, err
		}
		for _, address := range outsiders {
			if _, ok := byEmail[address]; ok {
				result.NotInGroup = append(result.NotInGroup, address)
			} else {
				result.MembersNotFound = append(result.MembersNotFound, address)
			}
		}
	}

	if err := s.repo.RemoveMembers(ctx, group.Name, userIDs); err != nil {
		return nil, err
	}
	kept := make([]Member, 0, len(group.Members)-len(userIDs))
	for _, m := range group.Members {
		if !removed[m.Email] {
			kept = append(kept, m)
		}
	}
	group.Members = kept
	result.Group = group
	return result, nil
}

func (s *service) invite(group *Group, creatorEmail string) {
	invitedBy := creatorEmail
	for _, member := range group.Members {
		if member.Email == creatorEmail {
			invitedBy = member.Username
		}
	}
	for _, member := range group.Members {
		if member.Email == creatorEmail {
			continue
		}
		s.mailer.QueueEmail(member.Email, email.GroupInvitationData{
			UserName:  member.Username,
			GroupName: group.Name,
			InvitedBy: invitedBy,
		})
	}
}

func (s *service) GetGroups(ctx context.Context) ([]Group, error) {
	return s.repo.FindAll(ctx)
}

func (s *service) GetGroup(ctx context.Context, name string) (*Group, error) {
	if strings.TrimSpace(name) == "" {
		return nil, ErrMissingFields
	}
	return s.repo.FindByName(ctx, name)
}

func (s *service) DeleteGroup(ctx context.Context, name string) error {
	if strings.TrimSpace(name) == "" {
		return ErrMissingFields
	}
	return s.repo.Delete(ctx, name)
}

// GroupMemberEmails reports the member emails of a group and whether the group exists.
func (s *service) GroupMemberEmails(ctx context.Context, name string) ([]string, bool, error) {
	group, err := s.repo.FindByName(ctx, name)
	if err != nil {
		if errors.Is(err, ErrGroupNotFound) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return group.MemberEmails(), true, nil
}
