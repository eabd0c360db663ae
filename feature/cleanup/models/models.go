package models

// Image represents one tracked image in a user's library.
// Rows are created by the ingestion pipeline and only ever removed by the
// cleanup purger. The autoincrement ID gives the stable per-user ordering
// the scan checkpoint relies on.
type Image struct {
	ID uint64 `gorm:"primaryKey;autoIncrement" json:"id"`
	// UserID is the owning user.
	UserID string `gorm:"not null;index" json:"user_id"`
	// FileKey is the storage object key backing this image.
	FileKey string `gorm:"not null;index" json:"file_key"`
	// Model is the detection model version that produced this record.
	Model     int   `gorm:"not null;index" json:"model"`
	CreatedAt int64 `gorm:"not null" json:"created_at"` // Unix timestamp

	// Relationships
	Faces []Face `gorm:"foreignKey:ImageID" json:"faces,omitempty"`
}

// TableName explicitly sets the table name for GORM.
func (Image) TableName() string {
	return "images"
}

// Face represents a detected face within an image.
type Face struct {
	ID      uint64 `gorm:"primaryKey;autoIncrement" json:"id"`
	ImageID uint64 `gorm:"not null;index" json:"image_id"`
	// PersonID links the face into a person cluster. Nullable: freshly
	// detected faces are unclustered.
	PersonID   *uint64 `gorm:"index" json:"person_id,omitempty"`
	X          int     `gorm:"not null" json:"x"`
	Y          int     `gorm:"not null" json:"y"`
	Width      int     `gorm:"not null" json:"width"`
	Height     int     `gorm:"not null" json:"height"`
	Confidence float64 `gorm:"not null" json:"confidence"`

	Person *Person `gorm:"foreignKey:PersonID" json:"person,omitempty"`
}

// TableName explicitly sets the table name for GORM.
func (Face) TableName() string {
	return "faces"
}

// Person represents a cluster of faces belonging to the same person.
// Clusters aggregate faces across images and are independently persisted;
// IsValid=false marks a cluster whose membership changed and must be
// recomputed by the clustering task.
type Person struct {
	ID      uint64 `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID  string `gorm:"not null;index" json:"user_id"`
	Name    string `gorm:"" json:"name"`
	IsValid bool   `gorm:"not null;default:true" json:"is_valid"`

	Faces []Face `gorm:"foreignKey:PersonID" json:"faces,omitempty"`
}

// TableName explicitly sets the table name for GORM.
func (Person) TableName() string {
	return "people"
}

// CleanupState is the per-user persisted scan state.
type CleanupState struct {
	UserID string `gorm:"primaryKey" json:"user_id"`
	// Checkpoint is the last processed image ID. Zero means a fresh scan
	// (or a completed one); a completed scan has no resume point.
	Checkpoint uint64 `gorm:"not null;default:0" json:"checkpoint"`
	// NeedsScan signals that a full pass is required. Cleared only when a
	// scan runs to completion.
	NeedsScan bool `gorm:"not null;default:true" json:"needs_scan"`
	// FullResync forces a scan even when NeedsScan is false. One-shot:
	// cleared together with NeedsScan when the scan completes.
	FullResync bool `gorm:"not null;default:false" json:"full_resync"`
}

// TableName explicitly sets the table name for GORM.
func (CleanupState) TableName() string {
	return "cleanup_states"
}
