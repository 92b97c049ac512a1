package model

const RoleAdmin = "admin"

// Session is what the identity provider stores in Redis under session:<id>.
type Session struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
}

type User struct {
	ID    string `bson:"_id"`
	Email string `bson:"email"`
	Name  string `bson:"name"`
	Role  string `bson:"role"`
}

// Principal is the authenticated caller of a request.
type Principal struct {
	UserID string
	Email  string
	Role   string
}

func (p *Principal) IsAdmin() bool {
	return p != nil && p.Role == RoleAdmin
}
