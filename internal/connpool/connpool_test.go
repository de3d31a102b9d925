// Copyright (c) 2025 QueryDesk
// Licensed under the MIT License. See LICENSE file in the project root for details.

package connpool

import (
	"context"
	stderrors "errors"
	"sync/atomic"
	"testing"
	"time"

	"golang.org/x/sync/errgroup"

	"querydesk/cli/internal/errors"
)

type stubConn struct{ Conn }

type stubPool struct {
	name     string
	acquired atomic.Int32
	closed   chan struct{}
	err      error
	// onAcquire runs before Acquire answers.
	onAcquire func()
}

func newStubPool(name string) *stubPool {
	return &stubPool{name: name, closed: make(chan struct{})}
}

func (p *stubPool) Acquire(context.Context) (Conn, error) {
	if p.onAcquire != nil {
		p.onAcquire()
	}
	if p.err != nil {
		return nil, p.err
	}
	p.acquired.Add(1)
	return stubConn{}, nil
}
func (p *stubPool) Ping(context.Context) error { return nil }
func (p *stubPool) Close()                     { close(p.closed) }
func (p *stubPool) Dialect() string            { return p.name }

func TestBorrowWithoutPool(t *testing.T) {
	m := NewManager()

	_, err := m.Borrow(context.Background())
	if !errors.Is(err, errors.NotConnected) {
		t.Fatalf("Borrow() error = %v, want not connected", err)
	}
	if err.Error() != "Not connected" {
		t.Errorf("message = %q, want %q", err.Error(), "Not connected")
	}
	if m.Connected() {
		t.Error("Connected() = true on empty manager")
	}
}

func TestBorrowAcquireFailure(t *testing.T) {
	m := NewManager()
	p := newStubPool("mysql")
	p.err = stderrors.New("too many connections")
	m.Replace(p)

	_, err := m.Borrow(context.Background())
	if !errors.Is(err, errors.ConnectionFailed) {
		t.Fatalf("Borrow() error = %v, want connection failed", err)
	}
}

func TestReplaceClosesPreviousPool(t *testing.T) {
	m := NewManager()
	first := newStubPool("first")
	second := newStubPool("second")

	m.Replace(first)
	m.Replace(second)

	select {
	case <-first.closed:
	case <-time.After(time.Second):
		t.Fatal("previous pool was not closed")
	}

	p, err := m.Current()
	if err != nil {
		t.Fatalf("Current() error = %v", err)
	}
	if p.Dialect() != "second" {
		t.Errorf("Current() = %s, want second", p.Dialect())
	}

	m.Clear()
	select {
	case <-second.closed:
	case <-time.After(time.Second):
		t.Fatal("cleared pool was not closed")
	}
	if m.Connected() {
		t.Error("Connected() = true after Clear")
	}
}

func TestConcurrentBorrow(t *testing.T) {
	m := NewManager()
	p := newStubPool("mysql")
	m.Replace(p)

	var g errgroup.Group
	for i := 0; i < 64; i++ {
		g.Go(func() error {
			conn, err := m.Borrow(context.Background())
			if err != nil {
				return err
			}
			if conn == nil {
				return stderrors.New("nil connection")
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		t.Fatalf("concurrent Borrow() error = %v", err)
	}
	if got := p.acquired.Load(); got != 64 {
		t.Errorf("acquired = %d, want 64", got)
	}
}

func TestBorrowDuringReplace(t *testing.T) {
	tests := []struct {
		name      string
		install   func(m *Manager)
		wantErr   bool
		wantRetry int32
	}{
		{
			name:      "reconnect to another server",
			install:   func(m *Manager) { m.Replace(newStubPool("postgres")) },
			wantRetry: 1,
		},
		{
			name:    "disconnect",
			install: func(m *Manager) { m.Clear() },
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewManager()
			old := newStubPool("mysql")
			old.err = stderrors.New("closed pool")
			old.onAcquire = func() { tt.install(m) }
			m.Replace(old)

			conn, err := m.Borrow(context.Background())
			if tt.wantErr {
				if !errors.Is(err, errors.ConnectionFailed) {
					t.Fatalf("Borrow() error = %v, want connection failed", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Borrow() error = %v", err)
			}
			if conn == nil {
				t.Fatal("Borrow() returned nil connection")
			}
			next, _ := m.Current()
			if got := next.(*stubPool).acquired.Load(); got != tt.wantRetry {
				t.Errorf("acquired on new pool = %d, want %d", got, tt.wantRetry)
			}
		})
	}
}

func TestBorrowFailureWithoutReplaceIsNotRetried(t *testing.T) {
	m := NewManager()
	p := newStubPool("mysql")
	var calls atomic.Int32
	p.onAcquire = func() { calls.Add(1) }
	p.err = stderrors.New("too many connections")
	m.Replace(p)

	if _, err := m.Borrow(context.Background()); err == nil {
		t.Fatal("Borrow() succeeded")
	}
	if got := calls.Load(); got != 1 {
		t.Errorf("Acquire called %d times, want 1", got)
	}
}
