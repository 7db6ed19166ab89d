package auth

import "github.com/sebuszqo/ezwallet/internal/user"

type PolicyKind int

const (
	// Simple only requires a verified identity.
	Simple PolicyKind = iota
	// Admin requires the Admin role.
	Admin
	// User requires the caller to be a specific user.
	User
	// Group requires the caller's email to be one of the group members.
	Group
)

func (k PolicyKind) String() string {
	switch k {
	case Simple:
		return "Simple"
	case Admin:
		return "Admin"
	case User:
		return "User"
	case Group:
		return "Group"
	default:
		return "Unknown"
	}
}

// Policy is the access rule a route requires. Username is set for User, Emails for Group.
type Policy struct {
	Kind     PolicyKind
	Username string
	Emails   []string
}

func SimplePolicy() Policy {
	return Policy{Kind: Simple}
}

func AdminPolicy() Policy {
	return Policy{Kind: Admin}
}

func UserPolicy(username string) Policy {
	return Policy{Kind: User, Username: username}
}

func GroupPolicy(emails []string) Policy {
	return Policy{Kind: Group, Emails: emails}
}

const (
	reasonUnauthorized  = "Unauthorized"
	reasonWrongRole     = "Wrong role"
	reasonWrongUsername = "Tokens have a different username from the requested one"
	reasonNotInGroup    = "Email is not included in the group emails"
	reasonUnknownPolicy = "Unknown authorization policy"
)

type Decision struct {
	Allowed bool
	Reason  string
}

func allow() Decision {
	return Decision{Allowed: true}
}

func deny(reason string) Decision {
	return Decision{Reason: reason}
}

// Authorize evaluates a single policy against an identity. It has no side effects.
func Authorize(identity *Identity, policy Policy) Decision {
	if identity == nil || identity.Username == "" {
		return deny(reasonUnauthorized)
	}

	switch policy.Kind {
	case Simple:
		return allow()
	case Admin:
		if identity.Role != user.RoleAdmin {
			return deny(reasonWrongRole)
		}
		return allow()
	case User:
		if policy.Username == "" || identity.Username != policy.Username {
			return deny(reasonWrongUsername)
		}
		return allow()
	case Group:
		for _, email := range policy.Emails {
			if email == identity.Email {
				return allow()
			}
		}
		return deny(reasonNotInGroup)
	default:
		return deny(reasonUnknownPolicy)
	}
}

// AuthorizeAny allows when at least one policy allows. On denial the reason of the
// first policy is returned, it is the one the route is primarily meant for.
func AuthorizeAny(identity *Identity, policies ...Policy) Decision {
	if len(policies) == 0 {
		return deny(reasonUnknownPolicy)
	}
	var first Decision
	for i, policy := range policies {
		decision := Authorize(identity, policy)
		if decision.Allowed {
			return decision
		}
		if i == 0 {
			first = decision
		}
	}
	return first
}
