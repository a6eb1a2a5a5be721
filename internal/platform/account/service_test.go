package account

import (
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"launchpad/internal/database"
)

func newTestDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()

	conn, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock.New err: %v", err)
	}
	t.Cleanup(func() { conn.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{
		Conn:                 conn,
		PreferSimpleProtocol: true,
	}), &gorm.Config{
		SkipDefaultTransaction: true,
		TranslateError:         true,
		DisableAutomaticPing:   true,
	})
	if err != nil {
		t.Fatalf("gorm.Open err: %v", err)
	}

	return db, mock
}

func userColumns() []string {
	return []string{
		"id", "email", "username", "password_hash", "is_active",
		"is_staff", "is_superuser", "date_joined", "reset_token", "reset_token_date",
	}
}

func emailColumns() []string {
	return []string{
		"id", "user_id", "address", "confirmation_code",
		"confirmation_code_date", "confirmed_at", "origin",
	}
}

const (
	countEmailQuery    = `SELECT count\(\*\) FROM "account"\."email" WHERE address = \$1`
	countUsernameQuery = `SELECT count\(\*\) FROM "account"\."user" WHERE username = \$1`
	selectUserQuery    = `SELECT \* FROM "account"\."user" WHERE`
	selectEmailQuery   = `SELECT \* FROM "account"\."email" WHERE`
	updateUserQuery    = `UPDATE "account"\."user" SET`
	updateEmailQuery   = `UPDATE "account"\."email" SET`
)

func TestCreateUser(t *testing.T) {
	db, mock := newTestDB(t)
	svc := NewService(db)

	mock.ExpectQuery(countEmailQuery).
		WithArgs("javier@example.com").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectQuery(countUsernameQuery).
		WithArgs("javier").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO "account"\."user"`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO "account"\."profile"`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO "account"\."email"`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	user, err := svc.CreateUser(CreateUserInput{
		Email:    "Javier@Example.com ",
		Password: "s3cret-passw0rd",
	})
	if err != nil {
		t.Fatalf("CreateUser err: %v", err)
	}

	if user.ID == uuid.Nil {
		t.Error("CreateUser left the user id unset")
	}
	if user.Email != "javier@example.com" {
		t.Errorf("CreateUser email = %q; want normalized %q", user.Email, "javier@example.com")
	}
	if user.Username == nil || *user.Username != "javier" {
		t.Errorf("CreateUser username = %v; want %q", user.Username, "javier")
	}
	if !user.IsActive {
		t.Error("CreateUser left the user inactive")
	}
	if user.PasswordHash == "" {
		t.Error("CreateUser left the password hash empty")
	}

	if len(user.Emails) != 1 {
		t.Fatalf("CreateUser attached %d emails; want 1", len(user.Emails))
	}
	email := user.Emails[0]
	if email.Origin != database.EmailOriginDefaultSignup {
		t.Errorf("CreateUser email origin = %q; want %q", email.Origin, database.EmailOriginDefaultSignup)
	}
	if email.ConfirmationCode == nil || email.ConfirmationCodeDate == nil {
		t.Error("CreateUser did not issue a confirmation code")
	}
	if email.IsConfirmed() {
		t.Error("CreateUser created a confirmed email")
	}
	if user.PrimaryEmail() == nil {
		t.Error("CreateUser signup email is not the primary email")
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestCreateUserDuplicateEmail(t *testing.T) {
	db, mock := newTestDB(t)
	svc := NewService(db)

	mock.ExpectQuery(countEmailQuery).
		WithArgs("javier@example.com").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	_, err := svc.CreateUser(CreateUserInput{Email: "javier@example.com", Password: "s3cret-passw0rd"})

	var conflict *ConflictError
	if !errors.As(err, &conflict) {
		t.Fatalf("CreateUser err = %v; want ConflictError", err)
	}
	if conflict.Field != "email" {
		t.Errorf("ConflictError field = %q; want %q", conflict.Field, "email")
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestCreateUserUsernameCollision(t *testing.T) {
	db, mock := newTestDB(t)
	svc := NewService(db)

	mock.ExpectQuery(countEmailQuery).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

	// The plain local part is taken, the suffixed retry is free.
	mock.ExpectQuery(countUsernameQuery).
		WithArgs("javier").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectQuery(countUsernameQuery).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO "account"\."user"`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO "account"\."profile"`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO "account"\."email"`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	user, err := svc.CreateUser(CreateUserInput{Email: "javier@example.com", Password: "s3cret-passw0rd"})
	if err != nil {
		t.Fatalf("CreateUser err: %v", err)
	}

	if user.Username == nil {
		t.Fatal("CreateUser left the username unset")
	}
	if matched, _ := regexp.MatchString(`^javier_\d{1,5}$`, *user.Username); !matched {
		t.Errorf("CreateUser username = %q; want suffixed variant of %q", *user.Username, "javier")
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestCreateUserInvalidEmail(t *testing.T) {
	db, _ := newTestDB(t)
	svc := NewService(db)

	for _, address := range []string{"", "not-an-email", "missing@tld@twice"} {
		_, err := svc.CreateUser(CreateUserInput{Email: address, Password: "s3cret-passw0rd"})

		var verr *ValidationError
		if !errors.As(err, &verr) {
			t.Errorf("CreateUser(%q) err = %v; want ValidationError", address, err)
			continue
		}
		if _, ok := verr.Fields["email"]; !ok {
			t.Errorf("CreateUser(%q) validation keys = %v; want email", address, verr.Fields)
		}
	}
}

func TestAddEmailDuplicate(t *testing.T) {
	db, mock := newTestDB(t)
	svc := NewService(db)

	mock.ExpectQuery(countEmailQuery).
		WithArgs("taken@example.com").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	user := &database.User{ID: uuid.New(), Email: "javier@example.com"}

	_, err := svc.AddEmail(user, "taken@example.com", database.EmailOriginUserInput)

	var conflict *ConflictError
	if !errors.As(err, &conflict) {
		t.Fatalf("AddEmail err = %v; want ConflictError", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestDeleteEmailPrimary(t *testing.T) {
	db, _ := newTestDB(t)
	svc := NewService(db)

	user := &database.User{ID: uuid.New(), Email: "javier@example.com"}
	email := &database.Email{ID: uuid.New(), UserID: user.ID, Address: "javier@example.com"}

	err := svc.DeleteEmail(user, email)

	var violation *PolicyViolation
	if !errors.As(err, &violation) {
		t.Fatalf("DeleteEmail err = %v; want PolicyViolation", err)
	}
}

func TestDeleteEmailSecondary(t *testing.T) {
	db, mock := newTestDB(t)
	svc := NewService(db)

	user := &database.User{ID: uuid.New(), Email: "javier@example.com"}
	email := &database.Email{ID: uuid.New(), UserID: user.ID, Address: "second@example.com"}

	mock.ExpectExec(`DELETE FROM "account"\."email"`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := svc.DeleteEmail(user, email); err != nil {
		t.Fatalf("DeleteEmail err: %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestUpdatePasswordClearsResetToken(t *testing.T) {
	db, mock := newTestDB(t)
	svc := NewService(db)

	token := "pending-token"
	issued := time.Now()
	user := &database.User{
		ID:             uuid.New(),
		Email:          "javier@example.com",
		ResetToken:     &token,
		ResetTokenDate: &issued,
	}

	mock.ExpectExec(updateUserQuery).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := svc.UpdatePassword(user, "fresh-passw0rd"); err != nil {
		t.Fatalf("UpdatePassword err: %v", err)
	}

	if user.PasswordHash == "" {
		t.Error("UpdatePassword left the hash empty")
	}
	if user.ResetToken != nil || user.ResetTokenDate != nil {
		t.Error("UpdatePassword did not clear the pending reset token")
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestCreateUserConcurrentDuplicate(t *testing.T) {
	db, mock := newTestDB(t)
	svc := NewService(db)

	mock.ExpectQuery(countEmailQuery).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectQuery(countUsernameQuery).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

	// The pre-check passed but a concurrent registration inserted first;
	// the unique constraint reports the race and the transaction rolls back.
	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO "account"\."user"`).
		WillReturnError(&pgconn.PgError{Code: "23505", Message: "duplicate key value violates unique constraint"})
	mock.ExpectRollback()

	_, err := svc.CreateUser(CreateUserInput{Email: "javier@example.com", Password: "s3cret-passw0rd"})

	var conflict *ConflictError
	if !errors.As(err, &conflict) {
		t.Fatalf("CreateUser err = %v; want ConflictError", err)
	}
	if conflict.Field != "email" {
		t.Errorf("ConflictError field = %q; want %q", conflict.Field, "email")
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestAddEmailConcurrentDuplicate(t *testing.T) {
	db, mock := newTestDB(t)
	svc := NewService(db)

	mock.ExpectQuery(countEmailQuery).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectExec(`INSERT INTO "account"\."email"`).
		WillReturnError(&pgconn.PgError{Code: "23505", Message: "duplicate key value violates unique constraint"})

	user := &database.User{ID: uuid.New(), Email: "javier@example.com"}

	_, err := svc.AddEmail(user, "second@example.com", database.EmailOriginUserInput)

	var conflict *ConflictError
	if !errors.As(err, &conflict) {
		t.Fatalf("AddEmail err = %v; want ConflictError", err)
	}
	if conflict.Field != "address" {
		t.Errorf("ConflictError field = %q; want %q", conflict.Field, "address")
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}
