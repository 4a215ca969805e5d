package sqlstore

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/mind-engage/lti-launch/pkg/lti-launch/launch"
)

func testStore(t *testing.T) *Store {
	t.Helper()
	dsn := "file:" + filepath.Join(t.TempDir(), "test.db")
	db, err := Open(context.Background(), DriverSQLite, dsn)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewStore(db)
}

func TestUpsertUserFirstLaunch(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	u, err := s.UpsertUser(ctx, User{
		PlatformSub:  "sub-1",
		Email:        "ada@example.edu",
		DisplayName:  "Ada",
		Role:         "teacher",
		ContextLabel: "CS101",
	})
	if err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if u.LocalID != "lti|sub-1" {
		t.Fatalf("local id = %q", u.LocalID)
	}

	got, err := s.GetUser(ctx, "sub-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Role != "teacher" || got.Email != "ada@example.edu" || got.ContextLabel != "CS101" {
		t.Fatalf("stored user = %+v", got)
	}
}

func TestUpsertUserKeepsStoredRoleAndID(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	if _, err := s.UpsertUser(ctx, User{PlatformSub: "sub-2", LocalID: "custom-98", Role: "admin"}); err != nil {
		t.Fatalf("first upsert: %v", err)
	}

	// A later launch asserts a weaker role and new profile data.
	u, err := s.UpsertUser(ctx, User{
		PlatformSub: "sub-2",
		Email:       "new@example.edu",
		DisplayName: "New Name",
		Role:        "student",
	})
	if err != nil {
		t.Fatalf("second upsert: %v", err)
	}
	if u.Role != "admin" {
		t.Fatalf("role = %q, stored role must win", u.Role)
	}
	if u.LocalID != "custom-98" {
		t.Fatalf("local id = %q, stored id must win", u.LocalID)
	}

	got, err := s.GetUser(ctx, "sub-2")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Role != "admin" || got.Email != "new@example.edu" || got.DisplayName != "New Name" {
		t.Fatalf("stored user = %+v", got)
	}
}

func TestUpsertUserRequiresSubject(t *testing.T) {
	s := testStore(t)
	if _, err := s.UpsertUser(context.Background(), User{Email: "x@example.edu"}); err == nil {
		t.Fatal("want error for missing platform subject")
	}
}

func TestGetUserNotFound(t *testing.T) {
	s := testStore(t)
	if _, err := s.GetUser(context.Background(), "nobody"); err != sql.ErrNoRows {
		t.Fatalf("err = %v, want sql.ErrNoRows", err)
	}
}

func TestClaimsResolver(t *testing.T) {
	s := testStore(t)
	r := &ClaimsResolver{Store: s}

	claims, err := r.ResolveClaims(context.Background(), launch.Principal{
		NameIdentifier: "sub-3",
		Email:          "grace@example.edu",
		Name:           "Grace",
		Context:        launch.Context{Label: "EE204"},
		Roles: []string{
			"http://purl.imsglobal.org/vocab/lis/v2/membership#Learner",
		},
	})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if claims["role"] != "student" || claims["sub"] != "lti|sub-3" || claims["context_label"] != "EE204" {
		t.Fatalf("claims = %v", claims)
	}
}

func TestClaimsResolverInstructor(t *testing.T) {
	s := testStore(t)
	r := &ClaimsResolver{Store: s}

	claims, err := r.ResolveClaims(context.Background(), launch.Principal{
		NameIdentifier: "sub-4",
		Roles: []string{
			"http://purl.imsglobal.org/vocab/lis/v2/membership#Learner",
			"http://purl.imsglobal.org/vocab/lis/v2/institution/person#Instructor",
		},
	})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if claims["role"] != "teacher" {
		t.Fatalf("role = %v, any #Instructor role makes a teacher", claims["role"])
	}
}

func TestIsInstructor(t *testing.T) {
	cases := []struct {
		roles []string
		want  bool
	}{
		{nil, false},
		{[]string{roleLearner}, false},
		{[]string{roleInstructor}, true},
		{[]string{roleLearner, roleInstructor}, true},
		{[]string{"http://purl.imsglobal.org/vocab/lis/v2/institution/person#Instructor"}, true},
		{[]string{"Instructor"}, false},
	}
	for _, c := range cases {
		if got := isInstructor(c.roles); got != c.want {
			t.Fatalf("isInstructor(%v) = %v, want %v", c.roles, got, c.want)
		}
	}
}
