package models

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/timshannon/bolthold"
	"go.etcd.io/bbolt"
	"golang.org/x/text/cases"
)

var (
	// ErrUserExists is returned when registering a provider/username pair twice
	ErrUserExists = errors.New("user already registered")

	// ErrUserNotFound is returned when no registered user matches
	ErrUserNotFound = errors.New("user not registered")

	// ErrSnapshotNotFound is returned when a user has no stored snapshot yet
	ErrSnapshotNotFound = errors.New("no snapshot stored")
)

// Database wraps the bolthold store
type Database struct {
	store *bolthold.Store
}

// NewDatabase creates a new database connection
func NewDatabase(path string) (*Database, error) {
	store, err := bolthold.Open(path, 0600, &bolthold.Options{
		Options: &bbolt.Options{
			Timeout: 1 * time.Second,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	return &Database{store: store}, nil
}

// Close closes the database connection
func (db *Database) Close() error {
	return db.store.Close()
}

// usernameKey folds case so "Luffy" and "luffy" are the same account
func usernameKey(username string) string {
	return cases.Fold().String(username)
}

// User operations

// CreateUser registers a user. Usernames are unique per provider, ignoring case.
func (db *Database) CreateUser(provider Provider, username string) (*User, error) {
	if _, err := db.GetUserByUsername(provider, username); err == nil {
		return nil, ErrUserExists
	} else if !errors.Is(err, ErrUserNotFound) {
		return nil, err
	}

	user := &User{
		ID:          uuid.NewString(),
		Provider:    provider,
		Username:    username,
		UsernameKey: usernameKey(username),
		CreatedAt:   time.Now().UTC(),
	}
	if err := db.store.Insert(user.ID, user); err != nil {
		return nil, fmt.Errorf("failed to insert user: %w", err)
	}
	return user, nil
}

// UpdateUser updates an existing user
func (db *Database) UpdateUser(user *User) error {
	return db.store.Update(user.ID, user)
}

// GetUserByID retrieves a user by ID
func (db *Database) GetUserByID(id string) (*User, error) {
	var user User
	err := db.store.Get(id, &user)
	if errors.Is(err, bolthold.ErrNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// GetUserByUsername retrieves a user by provider and username
func (db *Database) GetUserByUsername(provider Provider, username string) (*User, error) {
	var users []*User
	query := bolthold.Where("Provider").Eq(provider).And("UsernameKey").Eq(usernameKey(username))
	if err := db.store.Find(&users, query); err != nil {
		return nil, err
	}
	if len(users) == 0 {
		return nil, ErrUserNotFound
	}
	return users[0], nil
}

// GetAllUsers retrieves all registered users, oldest first
func (db *Database) GetAllUsers() ([]*User, error) {
	var users []*User
	if err := db.store.Find(&users, nil); err != nil {
		return nil, err
	}
	sort.SliceStable(users, func(i, j int) bool {
		return users[i].CreatedAt.Before(users[j].CreatedAt)
	})
	return users, nil
}

// DeleteUser deletes a user and all their snapshots
func (db *Database) DeleteUser(id string) error {
	if _, err := db.GetUserByID(id); err != nil {
		return err
	}
	if err := db.store.DeleteMatching(&Snapshot{}, bolthold.Where("UserID").Eq(id)); err != nil {
		return fmt.Errorf("failed to delete snapshots: %w", err)
	}
	return db.store.Delete(id, &User{})
}

// Snapshot operations

// CreateSnapshot stores a new snapshot and stamps the user's refresh time
func (db *Database) CreateSnapshot(snapshot *Snapshot) error {
	user, err := db.GetUserByID(snapshot.UserID)
	if err != nil {
		return err
	}

	snapshot.CreatedAt = time.Now().UTC()
	if err := db.store.Insert(bolthold.NextSequence(), snapshot); err != nil {
		return fmt.Errorf("failed to insert snapshot: %w", err)
	}

	refreshed := snapshot.CreatedAt
	user.LastRefreshedAt = &refreshed
	return db.UpdateUser(user)
}

// GetSnapshotsByUserID retrieves a user's snapshots, newest first
func (db *Database) GetSnapshotsByUserID(userID string) ([]*Snapshot, error) {
	var snapshots []*Snapshot
	if err := db.store.Find(&snapshots, bolthold.Where("UserID").Eq(userID)); err != nil {
		return nil, err
	}
	sort.SliceStable(snapshots, func(i, j int) bool {
		return snapshots[i].ID > snapshots[j].ID
	})
	for _, snapshot := range snapshots {
		snapshot.restoreEmpty()
	}
	return snapshots, nil
}

// GetLatestSnapshot retrieves the most recent snapshot for a user
func (db *Database) GetLatestSnapshot(userID string) (*Snapshot, error) {
	snapshots, err := db.GetSnapshotsByUserID(userID)
	if err != nil {
		return nil, err
	}
	if len(snapshots) == 0 {
		return nil, ErrSnapshotNotFound
	}
	return snapshots[0], nil
}

// PruneSnapshots keeps only the newest keep snapshots of a user
func (db *Database) PruneSnapshots(userID string, keep int) error {
	snapshots, err := db.GetSnapshotsByUserID(userID)
	if err != nil {
		return err
	}
	if len(snapshots) <= keep {
		return nil
	}
	for _, snapshot := range snapshots[keep:] {
		if err := db.store.Delete(snapshot.ID, &Snapshot{}); err != nil {
			return err
		}
	}
	return nil
}
