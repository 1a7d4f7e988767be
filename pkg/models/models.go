package models

// User is one row of the users table. Password holds the bcrypt hash; it is
// persisted with the table but never returned by an API handler directly.
type User struct {
	ID          int64    `json:"id"`
	Username    string   `json:"username"`
	Password    string   `json:"password"`
	Subscribers []string `json:"subscribers"`
}

// Comment is append-only; comments are never edited or deleted.
type Comment struct {
	User string `json:"user"`
	Text string `json:"text"`
}

// Video is one row of the videos table. Uploader is a denormalized copy of
// the uploading user's name, not a foreign key. Likes holds usernames in
// toggle order.
type Video struct {
	ID        int64     `json:"id"`
	Title     string    `json:"title"`
	Filename  string    `json:"filename"`
	Uploader  string    `json:"uploader"`
	Likes     []string  `json:"likes"`
	Comments  []Comment `json:"comments"`
	Thumbnail string    `json:"thumbnail"`
}
