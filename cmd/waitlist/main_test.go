package main

import (
	"context"
	"net"
	"net/http"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startServe(t *testing.T, h http.Handler, drain time.Duration) (addr string, cancel context.CancelFunc, served <-chan error) {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	ch := make(chan error, 1)
	go func() { ch <- serve(ctx, &http.Server{Handler: h}, ln, drain) }()
	return ln.Addr().String(), cancel, ch
}

func TestServe_WaitsForInFlightRequests(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	var finished atomic.Bool

	addr, cancel, served := startServe(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		close(started)
		<-release
		finished.Store(true)
		w.WriteHeader(http.StatusCreated)
	}), 5*time.Second)

	status := make(chan int, 1)
	go func() {
		res, err := http.Post("http://"+addr+"/api/waitlist", "application/json", nil)
		if err != nil {
			status <- 0
			return
		}
		_ = res.Body.Close()
		status <- res.StatusCode
	}()

	<-started
	cancel()

	select {
	case <-served:
		t.Fatal("serve returned with a request still running")
	case <-time.After(150 * time.Millisecond):
	}

	close(release)
	require.NoError(t, <-served)
	assert.True(t, finished.Load())
	assert.Equal(t, http.StatusCreated, <-status)
}

func TestServe_GivesUpAfterDrainTimeout(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	t.Cleanup(func() { close(release) })

	addr, cancel, served := startServe(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		close(started)
		<-release
	}), 50*time.Millisecond)

	go func() {
		res, err := http.Get("http://" + addr + "/health")
		if err == nil {
			_ = res.Body.Close()
		}
	}()

	<-started
	cancel()

	select {
	case err := <-served:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("serve did not return after the drain timeout")
	}
}

func TestServe_ListenerErrorIsReturned(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	require.NoError(t, ln.Close())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	err = serve(ctx, &http.Server{}, ln, time.Second)
	assert.Error(t, err)
}
