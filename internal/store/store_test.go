package store

import (
	"errors"
	"testing"

	"github.com/pavelanni/neetmock/internal/model"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(":memory:")
	if err != nil {
		t.Fatalf("newTestStore: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func createTestUser(t *testing.T, s *Store, email string) int64 {
	t.Helper()
	id, err := s.CreateUser(model.User{
		Name:         "Student " + email,
		Email:        email,
		PasswordHash: "hash",
		Role:         model.UserRoleStudent,
	})
	if err != nil {
		t.Fatalf("createTestUser: %v", err)
	}
	return id
}

func intPtr(v int) *int { return &v }

func testSubmission() model.Submission {
	return model.Submission{
		TestType:  "neet",
		TimeTaken: 120,
		Questions: []model.SubmittedQuestion{
			{Subject: "Physics", Chapter: "Kinematics", UserAnswer: intPtr(1), CorrectIndex: 1, IsCorrect: true, IsAttempted: true},
			{Subject: "Physics", Chapter: "Optics", UserAnswer: intPtr(0), CorrectIndex: 2, IsCorrect: false, IsAttempted: true},
			{Subject: "Biology", Chapter: "Cell", CorrectIndex: 3},
		},
	}
}

func TestUserCRUD(t *testing.T) {
	s := newTestStore(t)

	count, err := s.UserCount()
	if err != nil {
		t.Fatalf("UserCount: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected 0 users, got %d", count)
	}

	id := createTestUser(t, s, "Asha@Example.com")

	u, err := s.GetUserByEmail("asha@example.com ")
	if err != nil {
		t.Fatalf("GetUserByEmail: %v", err)
	}
	if u == nil || u.ID != id {
		t.Fatalf("expected user %d, got %+v", id, u)
	}
	if u.Email != "asha@example.com" {
		t.Errorf("expected normalized email, got %q", u.Email)
	}
	if u.CreatedAt.IsZero() {
		t.Error("created_at not set")
	}

	byID, err := s.GetUserByID(id)
	if err != nil || byID == nil || byID.Name != u.Name {
		t.Errorf("GetUserByID: %+v, %v", byID, err)
	}

	missing, err := s.GetUserByID(9999)
	if err != nil || missing != nil {
		t.Errorf("expected nil user, got %+v, %v", missing, err)
	}

	if _, err := s.CreateUser(model.User{Name: "Dup", Email: "ASHA@example.com", PasswordHash: "x", Role: model.UserRoleStudent}); !errors.Is(err, ErrEmailTaken) {
		t.Errorf("expected ErrEmailTaken, got %v", err)
	}

	users, err := s.ListUsers()
	if err != nil || len(users) != 1 {
		t.Errorf("ListUsers: %d users, %v", len(users), err)
	}
}

func TestSaveAndGetTestResult(t *testing.T) {
	s := newTestStore(t)
	uid := createTestUser(t, s, "a@example.com")

	sum := model.Summary{Total: 3, Correct: 1, Incorrect: 1, Unattempted: 1, Score: 3, MaxScore: 12, Percentage: 25, Accuracy: 50}
	rec, err := s.SaveTestResult(uid, testSubmission(), sum)
	if err != nil {
		t.Fatalf("SaveTestResult: %v", err)
	}
	if rec.ID == 0 {
		t.Fatal("expected id to be assigned")
	}

	got, err := s.GetTestResult(rec.ID)
	if err != nil {
		t.Fatalf("GetTestResult: %v", err)
	}
	if got.Score != 3 || got.MaxScore != 12 || got.Percentage != 25 || got.TestType != "neet" || got.TimeTaken != 120 {
		t.Errorf("unexpected record %+v", got)
	}
	if len(got.Questions) != 3 {
		t.Fatalf("expected 3 questions, got %d", len(got.Questions))
	}
	if q := got.Questions[0]; q.UserAnswer == nil || *q.UserAnswer != 1 || !q.IsCorrect || !q.IsAttempted {
		t.Errorf("unexpected first question %+v", q)
	}
	if q := got.Questions[2]; q.UserAnswer != nil || q.IsAttempted || q.Chapter != "Cell" {
		t.Errorf("unexpected unattempted question %+v", q)
	}

	none, err := s.GetTestResult(9999)
	if err != nil || none != nil {
		t.Errorf("expected nil result, got %+v, %v", none, err)
	}
}

func TestListTestResultsPagination(t *testing.T) {
	s := newTestStore(t)
	uid := createTestUser(t, s, "a@example.com")
	other := createTestUser(t, s, "b@example.com")

	for i := range 5 {
		sub := testSubmission()
		sub.TimeTaken = i
		if _, err := s.SaveTestResult(uid, sub, model.Summary{Total: 3}); err != nil {
			t.Fatal(err)
		}
	}
	if _, err := s.SaveTestResult(other, testSubmission(), model.Summary{}); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name      string
		page      int
		limit     int
		wantLen   int
		wantPages int
		wantPage  int
	}{
		{"first page", 1, 2, 2, 3, 1},
		{"last partial page", 3, 2, 1, 3, 3},
		{"past the end", 4, 2, 0, 3, 4},
		{"defaults", 0, 0, 5, 1, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hp, err := s.ListTestResults(uid, tt.page, tt.limit)
			if err != nil {
				t.Fatalf("ListTestResults: %v", err)
			}
			if len(hp.History) != tt.wantLen {
				t.Errorf("expected %d records, got %d", tt.wantLen, len(hp.History))
			}
			if hp.Pagination.Total != 5 || hp.Pagination.Pages != tt.wantPages || hp.Pagination.Page != tt.wantPage {
				t.Errorf("unexpected pagination %+v", hp.Pagination)
			}
			for _, r := range hp.History {
				if r.UserID != uid {
					t.Errorf("history leaked another user's record: %+v", r)
				}
			}
		})
	}

	hp, err := s.ListTestResults(uid, 1, 5)
	if err != nil {
		t.Fatal(err)
	}
	if hp.History[0].TimeTaken != 4 {
		t.Errorf("expected newest first, got time taken %d", hp.History[0].TimeTaken)
	}
}

func TestExportAllResults(t *testing.T) {
	s := newTestStore(t)
	a := createTestUser(t, s, "a@example.com")
	createTestUser(t, s, "b@example.com")

	if _, err := s.SaveTestResult(a, testSubmission(), model.Summary{Total: 3, Score: 3}); err != nil {
		t.Fatal(err)
	}

	results, err := s.ExportAllResults()
	if err != nil {
		t.Fatalf("ExportAllResults: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 users, got %d", len(results))
	}
	if len(results[0].Tests) != 1 || len(results[0].Tests[0].Questions) != 3 {
		t.Errorf("unexpected export for first user: %+v", results[0])
	}
	if len(results[1].Tests) != 0 {
		t.Errorf("expected no tests for second user, got %d", len(results[1].Tests))
	}
}

func TestOpenUnsupportedDriver(t *testing.T) {
	if _, err := Open(t.Context(), Driver("mysql"), ""); err == nil {
		t.Error("expected error for unsupported driver")
	}
}
