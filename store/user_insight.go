package store

// UserInsight is an accumulated lead record. Invariant: at most one row per
// SessionUserID; new facts are merged into Insight in place, never appended
// as a second row.
type UserInsight struct {
	ID                int32
	SessionUserID     string
	ArticleTitle      string
	Category          string
	Insight           string
	RawMessage        string
	UserName          string
	ContactPreference string // "email" or "phone"
	UserEmail         string
	UserPhone         string
	CreatedTs         int64
	UpdatedTs         int64
}

type FindUserInsight struct {
	ID            *int32
	SessionUserID *string
}

type UpdateUserInsight struct {
	ID                int32
	ArticleTitle      *string
	Category          *string
	Insight           *string
	RawMessage        *string
	UserName          *string
	ContactPreference *string
	UserEmail         *string
	UserPhone         *string
	UpdatedTs         *int64
}
