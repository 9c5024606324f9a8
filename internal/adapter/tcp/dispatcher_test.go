package tcp

import (
	"context"
	"io"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"

	usecase "tcp-user-service/internal/usecase/user"
)

// roundTrip sends raw over an in-memory pipe and returns everything the
// dispatcher writes back before closing. The write runs on its own
// goroutine because a pipe write blocks until the peer has read it all.
func roundTrip(t *testing.T, d *Dispatcher, raw string) string {
	t.Helper()

	client, server := net.Pipe()
	done := make(chan struct{})
	go func() {
		defer close(done)
		d.Handle(context.Background(), server)
	}()
	go func() {
		_, _ = client.Write([]byte(raw))
	}()

	out, err := io.ReadAll(client)
	require.NoError(t, err)
	require.NoError(t, client.Close())
	<-done
	return string(out)
}

func setupDispatcher(t *testing.T, opts Options) (*Dispatcher, *MockUserUsecase) {
	h, uc := setupHandler(t)
	return NewDispatcher(h, opts, zaptest.NewLogger(t)), uc
}

func TestDispatcher_Routes(t *testing.T) {
	d, uc := setupDispatcher(t, Options{})
	uc.On("CreateUser", mock.Anything, mock.Anything).Return(&usecase.CreateUserResponse{ID: 1}, nil)
	uc.On("UpdateUser", mock.Anything, mock.Anything).Return(&usecase.UpdateUserResponse{ID: 1, RowsAffected: 1}, nil)
	uc.On("DeleteUser", mock.Anything, mock.Anything).Return(&usecase.DeleteUserResponse{ID: 1}, nil)

	body := "\r\n\r\n{\"name\":\"a\",\"email\":\"b\"}"

	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"create", "POST /users HTTP/1.1" + body, "HTTP/1.1 200 OK\r\nContent-Type: application/json\r\n\r\nUser created"},
		{"update", "PUT /users/1 HTTP/1.1" + body, "HTTP/1.1 200 OK\r\nContent-Type: application/json\r\n\r\nUser updated"},
		{"delete", "DELETE /users/1 HTTP/1.1\r\n\r\n", "HTTP/1.1 200 OK\r\nContent-Type: application/json\r\n\r\nUser deleted"},
		{"create prefix is literal", "POST /users/5 HTTP/1.1" + body, "HTTP/1.1 200 OK\r\nContent-Type: application/json\r\n\r\nUser created"},
		{"get is not routed", "GET /users/1 HTTP/1.1\r\n\r\n", "HTTP/1.1 404 NOT FOUND\r\n\r\n404 Not Found"},
		{"put without id slash", "PUT /users HTTP/1.1" + body, "HTTP/1.1 404 NOT FOUND\r\n\r\n404 Not Found"},
		{"lowercase method", "post /users HTTP/1.1" + body, "HTTP/1.1 404 NOT FOUND\r\n\r\n404 Not Found"},
		{"garbage bytes", "\xff\xfe\x00junk", "HTTP/1.1 404 NOT FOUND\r\n\r\n404 Not Found"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, roundTrip(t, d, tt.raw))
		})
	}
}

func TestDispatcher_ClosedClientDoesNotCrash(t *testing.T) {
	d, _ := setupDispatcher(t, Options{})

	client, server := net.Pipe()
	require.NoError(t, client.Close())

	// The read sees EOF and proceeds with empty text; the write that
	// follows fails and the connection is dropped.
	done := make(chan struct{})
	go func() {
		defer close(done)
		d.Handle(context.Background(), server)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Handle did not return")
	}
}

func TestDispatcher_ReadsOnlyOneBuffer(t *testing.T) {
	d, uc := setupDispatcher(t, Options{ReadBufferSize: 16})

	// The body is beyond the first 16 bytes, so the create handler never
	// sees it and the usecase is not called.
	got := roundTrip(t, d, "POST /users HTTP/1.1\r\n\r\n{\"name\":\"a\",\"email\":\"b\"}")

	assert.Equal(t, "HTTP/1.1 500 INTERNAL SERVER ERROR\r\n\r\nError", got)
	uc.AssertNotCalled(t, "CreateUser", mock.Anything, mock.Anything)
}

func TestDispatcher_ServeStopsOnCancel(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	d, uc := setupDispatcher(t, Options{ReadTimeout: time.Second, WriteTimeout: time.Second})
	uc.On("DeleteUser", mock.Anything, usecase.DeleteUserRequest{ID: 3}).Return(&usecase.DeleteUserResponse{ID: 3}, nil)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- d.Serve(ctx, ln) }()

	conn, err := net.Dial("tcp", ln.Addr().String())
	require.NoError(t, err)
	_, err = conn.Write([]byte("DELETE /users/3 HTTP/1.1\r\n\r\n"))
	require.NoError(t, err)
	out, err := io.ReadAll(conn)
	require.NoError(t, err)
	require.NoError(t, conn.Close())
	assert.Contains(t, string(out), "User deleted")

	cancel()
	select {
	case err := <-errCh:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Serve did not return after cancel")
	}
}

func TestDispatcher_AccessLogCarriesRequestLine(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	h, _ := setupHandler(t)
	d := NewDispatcher(h, Options{}, zap.New(core))

	roundTrip(t, d, "GET /status HTTP/1.1\r\nHost: example.test\r\nUser-Agent: nc\r\n\r\n")

	entries := logs.FilterMessage("request handled").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, "GET", fields["method"])
	assert.Equal(t, "/status", fields["target"])
	assert.Equal(t, "HTTP/1.1", fields["proto"])
	assert.Equal(t, "example.test", fields["host"])
	assert.Equal(t, "nc", fields["user_agent"])
	assert.Equal(t, int64(404), fields["status"])
	assert.NotEmpty(t, fields["request_id"])
}
