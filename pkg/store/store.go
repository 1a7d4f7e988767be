package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"minitube/pkg/models"
)

var (
	ErrNotFound      = errors.New("not found")
	ErrUsernameTaken = errors.New("username taken")
)

// Store owns the users and videos tables for the lifetime of the process.
// Each table is one JSON array on disk, read once at startup and rewritten in
// full after every mutation. A per-table mutex is held for the whole
// read-modify-persist sequence, so concurrent mutations to the same table
// serialize instead of overwriting each other.
type Store struct {
	usersFile  string
	videosFile string

	usersMu sync.Mutex
	users   []*models.User

	videosMu sync.Mutex
	videos   []*models.Video
}

// Open loads both tables from dir, creating it if needed. A missing table
// file yields an empty table; a malformed one is an error the caller should
// treat as fatal.
func Open(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating data dir: %w", err)
	}
	s := &Store{
		usersFile:  filepath.Join(dir, "users.json"),
		videosFile: filepath.Join(dir, "videos.json"),
	}
	if err := loadTable(s.usersFile, &s.users); err != nil {
		return nil, fmt.Errorf("loading users table: %w", err)
	}
	if err := loadTable(s.videosFile, &s.videos); err != nil {
		return nil, fmt.Errorf("loading videos table: %w", err)
	}
	return s, nil
}

func loadTable(path string, table any) error {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}
	return json.Unmarshal(data, table)
}

// persistTable overwrites the backing file with a full snapshot. Callers must
// hold the table's mutex. The write is a plain overwrite, not a rename; a
// crash mid-write can truncate the file, which Open then reports.
func persistTable(path string, table any) error {
	data, err := json.MarshalIndent(table, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// AddUser appends a new user and persists the table. The uniqueness check
// runs under the same lock as the append, so two concurrent registrations of
// the same name cannot both succeed.
func (s *Store) AddUser(u *models.User) error {
	s.usersMu.Lock()
	defer s.usersMu.Unlock()
	for _, existing := range s.users {
		if existing.Username == u.Username {
			return ErrUsernameTaken
		}
	}
	s.users = append(s.users, u)
	return persistTable(s.usersFile, s.users)
}

// AddVideo appends a new video record and persists the table.
func (s *Store) AddVideo(v *models.Video) error {
	s.videosMu.Lock()
	defer s.videosMu.Unlock()
	s.videos = append(s.videos, v)
	return persistTable(s.videosFile, s.videos)
}

// FindUserByName returns a copy of the named user, or ErrNotFound.
func (s *Store) FindUserByName(name string) (models.User, error) {
	s.usersMu.Lock()
	defer s.usersMu.Unlock()
	for _, u := range s.users {
		if u.Username == name {
			return cloneUser(u), nil
		}
	}
	return models.User{}, ErrNotFound
}

// FindVideo returns a copy of the video with the given id, or ErrNotFound.
func (s *Store) FindVideo(id int64) (models.Video, error) {
	s.videosMu.Lock()
	defer s.videosMu.Unlock()
	for _, v := range s.videos {
		if v.ID == id {
			return cloneVideo(v), nil
		}
	}
	return models.Video{}, ErrNotFound
}

// Videos returns a copy of the whole videos table in insertion order.
func (s *Store) Videos() []models.Video {
	s.videosMu.Lock()
	defer s.videosMu.Unlock()
	out := make([]models.Video, 0, len(s.videos))
	for _, v := range s.videos {
		out = append(out, cloneVideo(v))
	}
	return out
}

// VideosBy returns copies of all videos whose stored uploader matches name.
func (s *Store) VideosBy(name string) []models.Video {
	s.videosMu.Lock()
	defer s.videosMu.Unlock()
	out := make([]models.Video, 0)
	for _, v := range s.videos {
		if v.Uploader == name {
			out = append(out, cloneVideo(v))
		}
	}
	return out
}

// MutateUser looks up the named user, applies fn, and persists the table.
// The lock is held for the whole sequence. If fn returns an error the change
// is not persisted and the error is returned as-is.
func (s *Store) MutateUser(name string, fn func(*models.User) error) error {
	s.usersMu.Lock()
	defer s.usersMu.Unlock()
	for _, u := range s.users {
		if u.Username == name {
			if err := fn(u); err != nil {
				return err
			}
			return persistTable(s.usersFile, s.users)
		}
	}
	return ErrNotFound
}

// MutateVideo is the videos-table counterpart of MutateUser.
func (s *Store) MutateVideo(id int64, fn func(*models.Video) error) error {
	s.videosMu.Lock()
	defer s.videosMu.Unlock()
	for _, v := range s.videos {
		if v.ID == id {
			if err := fn(v); err != nil {
				return err
			}
			return persistTable(s.videosFile, s.videos)
		}
	}
	return ErrNotFound
}

// Clones keep empty slices non-nil so JSON responses render [] rather than null.
func cloneUser(u *models.User) models.User {
	out := *u
	out.Subscribers = make([]string, len(u.Subscribers))
	copy(out.Subscribers, u.Subscribers)
	return out
}

func cloneVideo(v *models.Video) models.Video {
	out := *v
	out.Likes = make([]string, len(v.Likes))
	copy(out.Likes, v.Likes)
	out.Comments = make([]models.Comment, len(v.Comments))
	copy(out.Comments, v.Comments)
	return out
}
