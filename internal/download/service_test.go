package download

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/ytget/ytmux/internal/model"
)

type fakeOpener struct {
	mu      sync.Mutex
	bodies  map[int]string
	sizes   map[int]int64
	errs    map[int]error
	readErr map[int]error
	opened  []int
}

func (f *fakeOpener) OpenStream(_ context.Context, _ string, d model.StreamDescriptor) (io.ReadCloser, int64, error) {
	f.mu.Lock()
	f.opened = append(f.opened, d.Itag)
	f.mu.Unlock()

	if err := f.errs[d.Itag]; err != nil {
		return nil, 0, err
	}
	var r io.Reader = strings.NewReader(f.bodies[d.Itag])
	if err := f.readErr[d.Itag]; err != nil {
		r = io.MultiReader(r, &failingReader{err: err})
	}
	return io.NopCloser(r), f.sizes[d.Itag], nil
}

type failingReader struct {
	err error
}

func (r *failingReader) Read([]byte) (int, error) {
	return 0, r.err
}

func newTask(dir string, itag int, name string) *model.DownloadTask {
	return model.NewDownloadTask(GenerateTaskID(), "https://www.youtube.com/watch?v=test",
		model.StreamDescriptor{Itag: itag}, filepath.Join(dir, name))
}

func TestFetch(t *testing.T) {
	dir := t.TempDir()
	opener := &fakeOpener{
		bodies: map[int]string{140: "audio-bytes"},
		sizes:  map[int]int64{140: 11},
	}
	service := NewService(opener, nil)

	var written int
	service.SetBytesCallback(func(n int) { written += n })

	var last, lastTotal int64
	task := newTask(dir, 140, "a.tmp")
	path, err := service.Fetch(context.Background(), task, func(received, total int64) {
		if received < last {
			t.Errorf("Progress went backwards: %d < %d", received, last)
		}
		last, lastTotal = received, total
	})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if path != task.Destination {
		t.Errorf("Expected path %s, got %s", task.Destination, path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file: %v", err)
	}
	if string(data) != "audio-bytes" {
		t.Errorf("Unexpected content %q", string(data))
	}
	if last != 11 || lastTotal != 11 {
		t.Errorf("Expected final progress 11/11, got %d/%d", last, lastTotal)
	}
	if written != 11 {
		t.Errorf("Expected 11 bytes reported, got %d", written)
	}
	if f, ok := task.Fraction(); !ok || f != 1 {
		t.Errorf("Expected fraction 1, got %v (ok=%v)", f, ok)
	}
}

func TestFetchUnknownSize(t *testing.T) {
	opener := &fakeOpener{bodies: map[int]string{140: "abc"}}
	service := NewService(opener, nil)

	task := newTask(t.TempDir(), 140, "a.tmp")
	_, err := service.Fetch(context.Background(), task, func(_, total int64) {
		if total != 0 {
			t.Errorf("Expected unknown total, got %d", total)
		}
	})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if _, ok := task.Fraction(); ok {
		t.Error("Expected fraction to be undefined")
	}
}

func TestFetchOpenError(t *testing.T) {
	boom := errors.New("connection refused")
	service := NewService(&fakeOpener{errs: map[int]error{140: boom}}, nil)

	task := newTask(t.TempDir(), 140, "a.tmp")
	_, err := service.Fetch(context.Background(), task, nil)

	var de *DownloadError
	if !errors.As(err, &de) {
		t.Fatalf("Expected DownloadError, got %v", err)
	}
	if !errors.Is(err, boom) {
		t.Errorf("Expected wrapped cause, got %v", err)
	}
	if de.Target != task.Destination {
		t.Errorf("Expected target %s, got %s", task.Destination, de.Target)
	}
}

func TestFetchRemovesPartialFile(t *testing.T) {
	opener := &fakeOpener{
		bodies:  map[int]string{140: "partial"},
		readErr: map[int]error{140: io.ErrUnexpectedEOF},
	}
	service := NewService(opener, nil)

	task := newTask(t.TempDir(), 140, "a.tmp")
	_, err := service.Fetch(context.Background(), task, nil)
	if !errors.Is(err, io.ErrUnexpectedEOF) {
		t.Fatalf("Expected unexpected EOF, got %v", err)
	}
	if _, statErr := os.Stat(task.Destination); !os.IsNotExist(statErr) {
		t.Error("Expected partial file to be removed")
	}
}

func TestFetchPair(t *testing.T) {
	dir := t.TempDir()
	opener := &fakeOpener{
		bodies: map[int]string{137: strings.Repeat("v", 600_000), 140: strings.Repeat("a", 1000)},
		sizes:  map[int]int64{137: 600_000, 140: 1000},
	}
	service := NewService(opener, nil)

	var mu sync.Mutex
	var last, lastTotal int64
	videoPath, audioPath, err := service.FetchPair(context.Background(),
		newTask(dir, 137, "v.tmp"), newTask(dir, 140, "a.tmp"),
		func(received, total int64) {
			mu.Lock()
			defer mu.Unlock()
			if received < last {
				t.Errorf("Combined progress went backwards: %d < %d", received, last)
			}
			last, lastTotal = received, total
		})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if filepath.Base(videoPath) != "v.tmp" || filepath.Base(audioPath) != "a.tmp" {
		t.Errorf("Unexpected paths %s, %s", videoPath, audioPath)
	}
	if last != 601_000 || lastTotal != 601_000 {
		t.Errorf("Expected combined 601000/601000, got %d/%d", last, lastTotal)
	}
}

func TestFetchPairSizesFromOpener(t *testing.T) {
	dir := t.TempDir()
	// descriptors carry no size; the opener knows both
	opener := &fakeOpener{
		bodies: map[int]string{137: strings.Repeat("v", 600_000), 140: strings.Repeat("a", 1000)},
		sizes:  map[int]int64{137: 600_000, 140: 1000},
	}
	service := NewService(opener, nil)

	var mu sync.Mutex
	calls := 0
	_, _, err := service.FetchPair(context.Background(),
		newTask(dir, 137, "v.tmp"), newTask(dir, 140, "a.tmp"),
		func(received, total int64) {
			mu.Lock()
			defer mu.Unlock()
			calls++
			if total != 601_000 {
				t.Errorf("Expected combined total 601000, got %d (received %d)", total, received)
			}
		})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if calls == 0 {
		t.Error("Expected progress to be reported")
	}
}

func TestPairTrackerWaitsForBothSides(t *testing.T) {
	var got [][2]int64
	tracker := newPairTracker(&model.DownloadTask{}, &model.DownloadTask{}, func(received, total int64) {
		got = append(got, [2]int64{received, total})
	})

	tracker.update(0)(500, 1000)
	if len(got) != 0 {
		t.Fatalf("Expected no report before both sides open, got %v", got)
	}

	tracker.update(1)(0, 200)
	if len(got) != 1 || got[0] != [2]int64{500, 1200} {
		t.Fatalf("Expected [500 1200], got %v", got)
	}

	tracker.update(1)(100, 0)
	if got[len(got)-1] != [2]int64{600, 0} {
		t.Errorf("Expected unknown total when one side has none, got %v", got[len(got)-1])
	}
}

func TestFetchAnnouncesSizeFirst(t *testing.T) {
	opener := &fakeOpener{
		bodies: map[int]string{140: "abc"},
		sizes:  map[int]int64{140: 3},
	}
	service := NewService(opener, nil)

	var first [2]int64
	calls := 0
	_, err := service.Fetch(context.Background(), newTask(t.TempDir(), 140, "a.tmp"), func(received, total int64) {
		if calls == 0 {
			first = [2]int64{received, total}
		}
		calls++
	})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if first != [2]int64{0, 3} {
		t.Errorf("Expected first report 0/3, got %v", first)
	}
}

func TestFetchPairFirstErrorSiblingFinishes(t *testing.T) {
	dir := t.TempDir()
	boom := errors.New("stream gone")
	opener := &fakeOpener{
		bodies: map[int]string{140: "audio"},
		errs:   map[int]error{137: boom},
	}
	service := NewService(opener, nil)

	audio := newTask(dir, 140, "a.tmp")
	_, _, err := service.FetchPair(context.Background(), newTask(dir, 137, "v.tmp"), audio, nil)
	if !errors.Is(err, boom) {
		t.Fatalf("Expected first error, got %v", err)
	}

	// sibling is not cancelled and completes its file
	data, readErr := os.ReadFile(audio.Destination)
	if readErr != nil {
		t.Fatalf("Expected sibling file to exist: %v", readErr)
	}
	if !bytes.Equal(data, []byte("audio")) {
		t.Errorf("Unexpected sibling content %q", string(data))
	}
	if len(opener.opened) != 2 {
		t.Errorf("Expected both streams to be opened, got %d", len(opener.opened))
	}
}

func TestSetRateLimit(t *testing.T) {
	service := NewService(&fakeOpener{}, nil)

	service.SetRateLimit(512)
	if service.limiter == nil {
		t.Fatal("Expected limiter to be set")
	}
	if service.limiter.Burst() != 512*1024 {
		t.Errorf("Expected burst %d, got %d", 512*1024, service.limiter.Burst())
	}

	service.SetRateLimit(0)
	if service.limiter != nil {
		t.Error("Expected limiter to be cleared")
	}
}

func TestFetchWithRateLimit(t *testing.T) {
	body := strings.Repeat("x", 4096)
	opener := &fakeOpener{bodies: map[int]string{140: body}}
	service := NewService(opener, nil)
	// burst covers the body, so no waiting happens
	service.SetRateLimit(8)

	task := newTask(t.TempDir(), 140, "a.tmp")
	if _, err := service.Fetch(context.Background(), task, nil); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if task.Received != int64(len(body)) {
		t.Errorf("Expected %d bytes, got %d", len(body), task.Received)
	}
}

func TestGenerateTaskID(t *testing.T) {
	a, b := GenerateTaskID(), GenerateTaskID()
	if !strings.HasPrefix(a, TaskIDPrefix) {
		t.Errorf("Expected prefix %q, got %s", TaskIDPrefix, a)
	}
	if a == b {
		t.Error("Expected unique IDs")
	}
}
