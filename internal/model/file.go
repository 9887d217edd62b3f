package model

// File is the registry record for one uploaded blob. All fields are fixed at
// creation; ownership is never transferred.
type File struct {
	ID           string `json:"id"`
	OwnerID      string `json:"owner_id"`
	OriginalName string `json:"original_name"`
	MimeType     string `json:"mime_type"`
	SizeBytes    int64  `json:"size_bytes"`
	FileKey      string `json:"file_key"`
	Ctime        int64  `json:"ctime"`
}
