package tcp_test

import (
	"context"
	"io"
	"net"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/suite"
	"go.uber.org/zap/zaptest"
	"gorm.io/gorm"

	"tcp-user-service/internal/adapter/db/postgres"
	"tcp-user-service/internal/adapter/tcp"
	"tcp-user-service/internal/usecase/user"
)

const (
	okPrefix    = "HTTP/1.1 200 OK\r\nContent-Type: application/json\r\n\r\n"
	notFound    = "HTTP/1.1 404 NOT FOUND\r\n\r\n"
	serverError = "HTTP/1.1 500 INTERNAL SERVER ERROR\r\n\r\nError"
)

// ServerSuite runs the dispatcher on a real listener against a SQLite
// database, opening a fresh connection per request as in production.
type ServerSuite struct {
	suite.Suite
	dsn    string
	addr   string
	cancel context.CancelFunc
	done   chan error
}

func TestServerSuite(t *testing.T) {
	suite.Run(t, new(ServerSuite))
}

func (s *ServerSuite) SetupTest() {
	t := s.T()
	log := zaptest.NewLogger(t)

	s.dsn = filepath.Join(t.TempDir(), "users.db")
	dialer := postgres.NewDialer(func() gorm.Dialector { return sqlite.Open(s.dsn) }, nil, log)

	db, err := dialer.Connect()
	s.Require().NoError(err)
	s.Require().NoError(postgres.EnsureSchema(context.Background(), db))
	s.Require().NoError(postgres.CloseDatabase(db))

	handler := tcp.NewUserHandler(user.New(dialer, log), log)
	d := tcp.NewDispatcher(handler, tcp.Options{}, log)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	s.Require().NoError(err)
	s.addr = ln.Addr().String()

	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.done = make(chan error, 1)
	go func() { s.done <- d.Serve(ctx, ln) }()
}

func (s *ServerSuite) TearDownTest() {
	s.cancel()
	select {
	case err := <-s.done:
		s.NoError(err)
	case <-time.After(5 * time.Second):
		s.Fail("server did not stop")
	}
}

func (s *ServerSuite) send(raw string) string {
	conn, err := net.Dial("tcp", s.addr)
	s.Require().NoError(err)
	defer conn.Close()

	_, err = conn.Write([]byte(raw))
	s.Require().NoError(err)

	out, err := io.ReadAll(conn)
	s.Require().NoError(err)
	return string(out)
}

func (s *ServerSuite) rows() []postgres.UserSchema {
	db, err := gorm.Open(sqlite.Open(s.dsn), &gorm.Config{})
	s.Require().NoError(err)
	defer func() { _ = postgres.CloseDatabase(db) }()

	var models []postgres.UserSchema
	s.Require().NoError(db.Order("id").Find(&models).Error)
	return models
}

func body(name, email string) string {
	return "\r\nHost: localhost:8080\r\nContent-Type: application/json\r\n\r\n" +
		`{"name":"` + name + `","email":"` + email + `"}`
}

func (s *ServerSuite) TestCreateThenQuery() {
	s.Equal(okPrefix+"User created", s.send("POST /users HTTP/1.1"+body("Ann", "ann@example.com")))

	rows := s.rows()
	s.Require().Len(rows, 1)
	s.Equal("Ann", rows[0].Name)
	s.Equal("ann@example.com", rows[0].Email)
	s.Positive(rows[0].ID)
}

func (s *ServerSuite) TestUpdateExistingRow() {
	s.send("POST /users HTTP/1.1" + body("Ann", "ann@example.com"))
	id := s.rows()[0].ID

	got := s.send("PUT /users/" + itoa(id) + " HTTP/1.1" + body("Anne", "anne@example.com"))
	s.Equal(okPrefix+"User updated", got)

	rows := s.rows()
	s.Require().Len(rows, 1)
	s.Equal(id, rows[0].ID)
	s.Equal("Anne", rows[0].Name)
	s.Equal("anne@example.com", rows[0].Email)
}

func (s *ServerSuite) TestUpdateMissingRowReportsSuccess() {
	s.Equal(okPrefix+"User updated", s.send("PUT /users/12345 HTTP/1.1"+body("x", "y")))
	s.Empty(s.rows())
}

func (s *ServerSuite) TestDeleteTwice() {
	s.send("POST /users HTTP/1.1" + body("Ann", "ann@example.com"))
	s.send("POST /users HTTP/1.1" + body("Bob", "bob@example.com"))
	id := s.rows()[0].ID

	s.Equal(okPrefix+"User deleted", s.send("DELETE /users/"+itoa(id)+" HTTP/1.1\r\n\r\n"))
	s.Len(s.rows(), 1)

	s.Equal(notFound+"User not found", s.send("DELETE /users/"+itoa(id)+" HTTP/1.1\r\n\r\n"))
	s.Len(s.rows(), 1)
}

func (s *ServerSuite) TestUnroutedRequests() {
	for _, raw := range []string{
		"GET /users HTTP/1.1\r\n\r\n",
		"GET /users/1 HTTP/1.1\r\n\r\n",
		"PATCH /users/1 HTTP/1.1\r\n\r\n",
		"PUT /users HTTP/1.1\r\n\r\n",
		"hello",
	} {
		s.Equal(notFound+"404 Not Found", s.send(raw), raw)
	}
}

func (s *ServerSuite) TestMalformedBodiesWriteNothing() {
	s.send("POST /users HTTP/1.1" + body("Ann", "ann@example.com"))
	before := s.rows()

	s.Equal(serverError, s.send("POST /users HTTP/1.1\r\n\r\n{\"name\": \"x\"}"))
	s.Equal(serverError, s.send("POST /users HTTP/1.1\r\n\r\nnot json"))
	s.Equal(serverError, s.send("PUT /users/"+itoa(before[0].ID)+" HTTP/1.1\r\n\r\n{\"email\": \"x\"}"))

	s.Equal(before, s.rows())
}

func (s *ServerSuite) TestNonNumericIDTouchesNothing() {
	s.send("POST /users HTTP/1.1" + body("Ann", "ann@example.com"))
	before := s.rows()

	s.Equal(serverError, s.send("PUT /users/abc HTTP/1.1"+body("x", "y")))
	s.Equal(serverError, s.send("DELETE /users/abc HTTP/1.1\r\n\r\n"))

	s.Equal(before, s.rows())
}

func (s *ServerSuite) TestSchemaBootstrapIsIdempotent() {
	s.send("POST /users HTTP/1.1" + body("Ann", "ann@example.com"))

	db, err := gorm.Open(sqlite.Open(s.dsn), &gorm.Config{})
	s.Require().NoError(err)
	s.Require().NoError(postgres.EnsureSchema(context.Background(), db))
	s.Require().NoError(postgres.CloseDatabase(db))

	s.Len(s.rows(), 1)
}

func (s *ServerSuite) TestInvalidUTF8DoesNotCrash() {
	s.Equal(serverError, s.send("POST /users HTTP/1.1\r\n\r\n{\"name\":\"\xff\",\"email\""))
	s.Equal(okPrefix+"User created", s.send("POST /users HTTP/1.1"+body("after", "after@example.com")))
}

func itoa(id int64) string {
	return strconv.FormatInt(id, 10)
}
