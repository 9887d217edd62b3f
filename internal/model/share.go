package model

const (
	ShareKindUser = "user"
	ShareKindLink = "link"
)

// Share grants read access to a file, either to a named set of users or to
// whoever presents the link token. ExpiresAt == 0 means the grant never
// expires; expired rows persist and are filtered at read time.
type Share struct {
	ID        string   `json:"id"`
	FileID    string   `json:"file_id"`
	OwnerID   string   `json:"owner_id"`
	Kind      string   `json:"kind"`
	GrantedTo []string `json:"granted_to,omitempty"`
	LinkToken string   `json:"link_token,omitempty"`
	ExpiresAt int64    `json:"expires_at,omitempty"`
	Ctime     int64    `json:"ctime"`
}
