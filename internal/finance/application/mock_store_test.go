package application

import (
	"context"
	"errors"
	"sort"

	"github.com/sebuszqo/ezwallet/internal/events"
	"github.com/sebuszqo/ezwallet/internal/finance/domain"
)

// memoryStore backs both repositories so category changes are visible to transactions.
type memoryStore struct {
	categories   []domain.Category
	transactions []domain.Transaction
	nextSeq      int64
	shouldFail   bool
}

func newMemoryStore(categories ...domain.Category) *memoryStore {
	s := &memoryStore{}
	for _, c := range categories {
		s.nextSeq++
		c.Seq = s.nextSeq
		s.categories = append(s.categories, c)
	}
	return s
}

func (s *memoryStore) countByType(categoryType string) int64 {
	var count int64
	for _, t := range s.transactions {
		if t.Type == categoryType {
			count++
		}
	}
	return count
}

type memoryCategories struct{ *memoryStore }

func (m memoryCategories) Create(_ context.Context, category *domain.Category) error {
	for _, c := range m.categories {
		if c.Type == category.Type {
			return domain.CategoryAlreadyExists(category.Type)
		}
	}
	m.nextSeq++
	category.Seq = m.nextSeq
	m.categories = append(m.categories, *category)
	return nil
}

func (m memoryCategories) FindAll(_ context.Context) ([]domain.Category, error) {
	if m.shouldFail {
		return nil, errors.New("store error")
	}
	out := append([]domain.Category(nil), m.categories...)
	sort.Slice(out, func(i, j int) bool { return out[i].Seq < out[j].Seq })
	return out, nil
}

func (m memoryCategories) FindByType(_ context.Context, categoryType string) (*domain.Category, error) {
	for i := range m.categories {
		if m.categories[i].Type == categoryType {
			c := m.categories[i]
			return &c, nil
		}
	}
	return nil, domain.CategoryNotFound(categoryType)
}

func (m memoryCategories) Rename(_ context.Context, oldType, newType, color string) (int64, error) {
	for i := range m.categories {
		if m.categories[i].Type == oldType {
			count := m.countByType(oldType)
			m.categories[i].Type = newType
			m.categories[i].Color = color
			for j := range m.transactions {
				if m.transactions[j].Type == oldType {
					m.transactions[j].Type = newType
				}
			}
			return count, nil
		}
	}
	return 0, domain.CategoryNotFound(oldType)
}

func (m memoryCategories) DeleteAndReassign(_ context.Context, types []string, fallback string) (int64, error) {
	deleted := map[string]bool{}
	for _, t := range types {
		deleted[t] = true
	}
	var count int64
	for j := range m.transactions {
		if deleted[m.transactions[j].Type] {
			m.transactions[j].Type = fallback
			count++
		}
	}
	kept := m.categories[:0]
	for _, c := range m.categories {
		if !deleted[c.Type] {
			kept = append(kept, c)
		}
	}
	m.categories = kept
	return count, nil
}

type memoryTransactions struct{ *memoryStore }

func (m memoryTransactions) Save(_ context.Context, transaction *domain.Transaction) error {
	m.transactions = append(m.transactions, *transaction)
	return nil
}

func (m memoryTransactions) Find(_ context.Context, filter domain.TransactionFilter) ([]domain.EnrichedTransaction, error) {
	colors := map[string]string{}
	for _, c := range m.categories {
		colors[c.Type] = c.Color
	}
	members := map[string]bool{}
	for _, u := range filter.Usernames {
		members[u] = true
	}

	out := []domain.EnrichedTransaction{}
	for _, t := range m.transactions {
		switch {
		case filter.Username != "" && t.Username != filter.Username:
		case filter.Usernames != nil && !members[t.Username]:
		case filter.Category != "" && t.Type != filter.Category:
		case filter.From != nil && t.Date.Before(*filter.From):
		case filter.Before != nil && !t.Date.Before(*filter.Before):
		case filter.MinAmount != nil && t.Amount < *filter.MinAmount:
		case filter.MaxAmount != nil && t.Amount > *filter.MaxAmount:
		default:
			out = append(out, domain.EnrichedTransaction{Transaction: t, Color: colors[t.Type]})
		}
	}
	return out, nil
}

func (m memoryTransactions) FindByID(_ context.Context, id string) (*domain.Transaction, error) {
	for i := range m.transactions {
		if m.transactions[i].ID == id {
			t := m.transactions[i]
			return &t, nil
		}
	}
	return nil, domain.ErrTransactionNotFound
}

func (m memoryTransactions) Delete(_ context.Context, id string) error {
	for i := range m.transactions {
		if m.transactions[i].ID == id {
			m.transactions = append(m.transactions[:i], m.transactions[i+1:]...)
			return nil
		}
	}
	return domain.ErrTransactionNotFound
}

func (m memoryTransactions) DeleteMany(_ context.Context, ids []string) (int64, error) {
	index := map[string]bool{}
	for _, t := range m.transactions {
		index[t.ID] = true
	}
	for _, id := range ids {
		if !index[id] {
			return 0, domain.ErrTransactionNotFound
		}
	}
	remove := map[string]bool{}
	for _, id := range ids {
		remove[id] = true
	}
	kept := m.transactions[:0]
	for _, t := range m.transactions {
		if !remove[t.ID] {
			kept = append(kept, t)
		}
	}
	m.transactions = kept
	return int64(len(ids)), nil
}

type mockUsers struct {
	byEmail map[string]string
}

func (m mockUsers) UserExists(_ context.Context, username string) (bool, error) {
	for _, u := range m.byEmail {
		if u == username {
			return true, nil
		}
	}
	return false, nil
}

func (m mockUsers) UsernamesByEmails(_ context.Context, emails []string) ([]string, error) {
	usernames := []string{}
	for _, email := range emails {
		if u, ok := m.byEmail[email]; ok {
			usernames = append(usernames, u)
		}
	}
	return usernames, nil
}

type mockGroups map[string][]string

func (m mockGroups) GroupMemberEmails(_ context.Context, name string) ([]string, bool, error) {
	emails, ok := m[name]
	return emails, ok, nil
}

type recordingPublisher struct {
	published []events.Event
}

func (p *recordingPublisher) Publish(_ context.Context, event events.Event) error {
	p.published = append(p.published, event)
	return nil
}

func (p *recordingPublisher) Close() error { return nil }
