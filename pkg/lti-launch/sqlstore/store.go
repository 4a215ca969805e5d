// pkg/lti-launch/sqlstore/store.go
package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// User is one mapped launch identity: the Platform subject plus the
// local id and role assigned to it.
type User struct {
	PlatformSub  string
	LocalID      string
	Email        string
	DisplayName  string
	Role         string
	ContextLabel string
}

// Store maps Platform subjects to local users. A subject keeps the
// role it was first given; later launches update profile data only, so
// a manual role elevation is never clobbered by a launch.
type Store struct{ db *sql.DB }

func NewStore(db *sql.DB) *Store { return &Store{db: db} }

// UpsertUser inserts the user on first launch and refreshes
// email/name/context on later ones. The stored role and local id win
// over the incoming values.
func (s *Store) UpsertUser(ctx context.Context, u User) (User, error) {
	if u.PlatformSub == "" {
		return User{}, errors.New("sqlstore: platform subject required")
	}
	if u.LocalID == "" {
		u.LocalID = "lti|" + u.PlatformSub
	}

	now := time.Now().Unix()
	var existingID, existingRole string
	err := s.db.QueryRowContext(ctx,
		`SELECT local_id, role FROM lti_users WHERE platform_sub=$1`, u.PlatformSub).
		Scan(&existingID, &existingRole)
	switch {
	case err == sql.ErrNoRows:
		_, err = s.db.ExecContext(ctx,
			`INSERT INTO lti_users (platform_sub, local_id, email, display_name, role, context_label, created_at, updated_at)
			 VALUES ($1,$2,$3,$4,$5,$6,$7,$7)`,
			u.PlatformSub, u.LocalID, u.Email, u.DisplayName, u.Role, u.ContextLabel, now)
		if err != nil {
			return User{}, err
		}
		return u, nil
	case err != nil:
		return User{}, err
	}

	u.LocalID = existingID
	if existingRole != "" {
		u.Role = existingRole
	}
	_, err = s.db.ExecContext(ctx,
		`UPDATE lti_users SET email=$2, display_name=$3, context_label=$4, updated_at=$5 WHERE platform_sub=$1`,
		u.PlatformSub, u.Email, u.DisplayName, u.ContextLabel, now)
	if err != nil {
		return User{}, err
	}
	return u, nil
}

// GetUser looks up a mapped user by Platform subject.
func (s *Store) GetUser(ctx context.Context, platformSub string) (User, error) {
	u := User{PlatformSub: platformSub}
	err := s.db.QueryRowContext(ctx,
		`SELECT local_id, email, display_name, role, context_label FROM lti_users WHERE platform_sub=$1`,
		platformSub).
		Scan(&u.LocalID, &u.Email, &u.DisplayName, &u.Role, &u.ContextLabel)
	if err != nil {
		return User{}, err
	}
	return u, nil
}
