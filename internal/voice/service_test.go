package voice_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/Vovarama1992/go-utils/logger"
	"go.uber.org/zap"

	"github.com/Felipe2109/voice_relay/internal/audiostore"
	"github.com/Felipe2109/voice_relay/internal/ingest"
	"github.com/Felipe2109/voice_relay/internal/metrics"
	"github.com/Felipe2109/voice_relay/internal/ports"
	"github.com/Felipe2109/voice_relay/internal/voice"
)

type fakeSTT struct {
	text    string
	err     error
	calls   int
	path    string
	content []byte
}

func (f *fakeSTT) Transcribe(_ context.Context, path string) (string, error) {
	f.calls++
	f.path = path
	f.content, _ = os.ReadFile(path)
	return f.text, f.err
}

type fakeDialogue struct {
	reply string
	err   error
	calls int
	got   string
}

func (f *fakeDialogue) Reply(_ context.Context, text string) (string, error) {
	f.calls++
	f.got = text
	return f.reply, f.err
}

type fakeArchive struct {
	calls        int
	fileExisted  bool
	archivedPath string
	err          error

	// started is closed when Archive is entered; Archive then blocks until
	// release is closed. Both are optional.
	started chan struct{}
	release chan struct{}
}

func (f *fakeArchive) ObjectKey(id, ext string) string { return id + ext }

func (f *fakeArchive) Archive(_ context.Context, id, path string) (string, error) {
	f.calls++
	f.archivedPath = path
	_, err := os.Stat(path)
	f.fileExisted = err == nil
	if f.started != nil {
		close(f.started)
	}
	if f.release != nil {
		<-f.release
	}
	return "s3://" + id, f.err
}

type fakeExchanges struct {
	recorded []ports.Exchange
	err      error
}

func (f *fakeExchanges) Record(_ context.Context, e ports.Exchange) error {
	f.recorded = append(f.recorded, e)
	return f.err
}

func (f *fakeExchanges) ListRecent(context.Context, int) ([]ports.Exchange, error) {
	return f.recorded, nil
}

type fakeNotifier struct {
	calls   int
	release chan struct{}
}

func (f *fakeNotifier) Notify(context.Context, error, string) error {
	f.calls++
	if f.release != nil {
		<-f.release
	}
	return nil
}

type fixture struct {
	svc       *voice.Service
	store     *audiostore.FileStore
	stt       *fakeSTT
	dialogue  *fakeDialogue
	archive   *fakeArchive
	exchanges *fakeExchanges
	notifier  *fakeNotifier
}

func newFixture(t *testing.T, stt *fakeSTT, dlg *fakeDialogue) *fixture {
	t.Helper()
	log := logger.NewZapLogger(zap.NewNop().Sugar())
	m := metrics.New()
	store, err := audiostore.NewFileStore(t.TempDir(), log, m.CleanupFailures)
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}

	f := &fixture{
		store:     store,
		stt:       stt,
		dialogue:  dlg,
		archive:   &fakeArchive{},
		exchanges: &fakeExchanges{},
		notifier:  &fakeNotifier{},
	}
	f.svc = voice.NewService(store, stt, dlg, f.archive, f.exchanges, f.notifier, m, log)
	return f
}

func (f *fixture) uploaded(t *testing.T, content string) ingest.Request {
	t.Helper()
	file, err := f.store.SaveFrom(strings.NewReader(content), ".mp3")
	if err != nil {
		t.Fatalf("SaveFrom: %v", err)
	}
	return ingest.Request{Kind: ingest.KindMultipartFile, Path: file.Path, Ext: ".mp3"}
}

// settle waits for background cleanup, then checks no scratch file is left.
func (f *fixture) settle(t *testing.T) {
	t.Helper()
	f.svc.Wait()
	assertDirEmpty(t, f.store.Dir())
}

func assertDirEmpty(t *testing.T, dir string) {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		t.Errorf("temporary files left behind: %d (first %s)", len(entries), entries[0].Name())
	}
}

func TestReply_MultipartSuccessRemovesUpload(t *testing.T) {
	f := newFixture(t, &fakeSTT{text: " que horas são? "}, &fakeDialogue{reply: "São dez horas."})
	req := f.uploaded(t, "mp3 data")

	got, err := f.svc.Reply(context.Background(), req)
	if err != nil {
		t.Fatalf("Reply: %v", err)
	}
	if got != "São dez horas." {
		t.Errorf("reply: got %q", got)
	}
	if f.stt.path != req.Path || string(f.stt.content) != "mp3 data" {
		t.Errorf("transcriber saw %q with %q", f.stt.path, f.stt.content)
	}
	if f.dialogue.got != "que horas são?" {
		t.Errorf("dialogue got untrimmed text %q", f.dialogue.got)
	}
	f.settle(t)
	if _, err := os.Stat(req.Path); !os.IsNotExist(err) {
		t.Errorf("uploaded file still on disk: %v", err)
	}
}

func TestReply_RawBytesCreatesAndRemovesFile(t *testing.T) {
	f := newFixture(t, &fakeSTT{text: "oi"}, &fakeDialogue{reply: "Olá!"})

	got, err := f.svc.Reply(context.Background(), ingest.Request{
		Kind:  ingest.KindRawBytes,
		Bytes: []byte("RIFF raw wav"),
		Ext:   ".wav",
	})
	if err != nil {
		t.Fatalf("Reply: %v", err)
	}
	if got != "Olá!" {
		t.Errorf("reply: got %q", got)
	}
	if string(f.stt.content) != "RIFF raw wav" {
		t.Errorf("transcriber saw content %q", f.stt.content)
	}
	if filepath.Dir(f.stt.path) != f.store.Dir() || filepath.Ext(f.stt.path) != ".wav" {
		t.Errorf("unexpected scratch path %s", f.stt.path)
	}
	f.settle(t)
}

func TestReply_NoAudio(t *testing.T) {
	f := newFixture(t, &fakeSTT{text: "x"}, &fakeDialogue{reply: "y"})

	_, err := f.svc.Reply(context.Background(), ingest.Request{Kind: ingest.KindNone})
	if !errors.Is(err, voice.ErrNoAudioProvided) {
		t.Fatalf("got %v, want ErrNoAudioProvided", err)
	}
	if f.stt.calls != 0 || f.dialogue.calls != 0 {
		t.Errorf("collaborators called: stt=%d dialogue=%d", f.stt.calls, f.dialogue.calls)
	}
	if f.archive.calls != 0 {
		t.Error("nothing to archive without audio")
	}
}

func TestReply_TranscriptionFailure(t *testing.T) {
	for _, kind := range []ingest.Kind{ingest.KindMultipartFile, ingest.KindRawBytes} {
		t.Run(kind.String(), func(t *testing.T) {
			f := newFixture(t, &fakeSTT{err: errors.New("whisper: 500")}, &fakeDialogue{reply: "y"})

			req := ingest.Request{Kind: ingest.KindRawBytes, Bytes: []byte("abc")}
			if kind == ingest.KindMultipartFile {
				req = f.uploaded(t, "abc")
			}

			_, err := f.svc.Reply(context.Background(), req)
			if !errors.Is(err, voice.ErrTranscriptionFailed) {
				t.Fatalf("got %v, want ErrTranscriptionFailed", err)
			}
			if f.dialogue.calls != 0 {
				t.Error("dialogue must not run after a failed transcription")
			}
			f.settle(t)
			if f.notifier.calls != 1 {
				t.Errorf("notifier calls: got %d, want 1", f.notifier.calls)
			}
			if len(f.exchanges.recorded) != 0 {
				t.Error("failed exchanges must not be persisted")
			}
		})
	}
}

func TestReply_BlankTranscriptSkipsDialogue(t *testing.T) {
	for _, text := range []string{"", "   ", "\n\t"} {
		f := newFixture(t, &fakeSTT{text: text}, &fakeDialogue{reply: "should not be used"})

		got, err := f.svc.Reply(context.Background(), f.uploaded(t, "noise"))
		if err != nil {
			t.Fatalf("Reply(%q): %v", text, err)
		}
		if got != voice.ClarificationText {
			t.Errorf("Reply(%q): got %q", text, got)
		}
		if f.dialogue.calls != 0 {
			t.Errorf("Reply(%q): dialogue called %d times", text, f.dialogue.calls)
		}
		if len(f.exchanges.recorded) != 1 || f.exchanges.recorded[0].Outcome != voice.OutcomeClarification {
			t.Errorf("Reply(%q): recorded %+v", text, f.exchanges.recorded)
		}
		f.settle(t)
	}
}

func TestReply_EmptyDialogueFallsBack(t *testing.T) {
	for _, reply := range []string{"", "  \n"} {
		f := newFixture(t, &fakeSTT{text: "liga a luz"}, &fakeDialogue{reply: reply})

		got, err := f.svc.Reply(context.Background(), ingest.Request{Kind: ingest.KindRawBytes, Bytes: []byte("a")})
		if err != nil {
			t.Fatalf("Reply: %v", err)
		}
		if got != voice.FallbackReply {
			t.Errorf("got %q, want %q", got, voice.FallbackReply)
		}
		f.settle(t)
	}
}

func TestReply_DialogueFailure(t *testing.T) {
	f := newFixture(t, &fakeSTT{text: "oi"}, &fakeDialogue{err: errors.New("429")})

	_, err := f.svc.Reply(context.Background(), f.uploaded(t, "abc"))
	if !errors.Is(err, voice.ErrDialogueFailed) {
		t.Fatalf("got %v, want ErrDialogueFailed", err)
	}
	f.settle(t)
	if f.notifier.calls != 1 {
		t.Errorf("notifier calls: got %d", f.notifier.calls)
	}
}

func TestReply_ArchivesBeforeDeleting(t *testing.T) {
	f := newFixture(t, &fakeSTT{text: "oi"}, &fakeDialogue{reply: "Olá"})
	f.archive.err = errors.New("bucket gone")

	req := f.uploaded(t, "abc")
	if _, err := f.svc.Reply(context.Background(), req); err != nil {
		t.Fatalf("archive failure must not fail the request: %v", err)
	}
	f.settle(t)
	if f.archive.calls != 1 || !f.archive.fileExisted || f.archive.archivedPath != req.Path {
		t.Errorf("archive: %+v", f.archive)
	}
}

func TestReply_RecordsExchange(t *testing.T) {
	f := newFixture(t, &fakeSTT{text: "oi"}, &fakeDialogue{reply: "Olá"})
	f.exchanges.err = errors.New("db down")

	if _, err := f.svc.Reply(context.Background(), ingest.Request{Kind: ingest.KindRawBytes, Bytes: []byte("abcd")}); err != nil {
		t.Fatalf("recording failure must not fail the request: %v", err)
	}
	if len(f.exchanges.recorded) != 1 {
		t.Fatalf("recorded %d exchanges", len(f.exchanges.recorded))
	}
	e := f.exchanges.recorded[0]
	if e.ID == "" || e.Source != "raw" || e.Transcript != "oi" || e.Reply != "Olá" ||
		e.Outcome != voice.OutcomeReply || e.AudioBytes != 4 {
		t.Errorf("unexpected exchange %+v", e)
	}
	f.settle(t)
}

func TestReply_OptionalCollaboratorsMayBeNil(t *testing.T) {
	log := logger.NewZapLogger(zap.NewNop().Sugar())
	store, err := audiostore.NewFileStore(t.TempDir(), log, nil)
	if err != nil {
		t.Fatal(err)
	}
	svc := voice.NewService(store, &fakeSTT{err: errors.New("x")}, &fakeDialogue{}, nil, nil, nil, metrics.New(), log)

	if _, err := svc.Reply(context.Background(), ingest.Request{Kind: ingest.KindRawBytes, Bytes: []byte("a")}); !errors.Is(err, voice.ErrTranscriptionFailed) {
		t.Fatalf("got %v", err)
	}
	svc.Wait()
	assertDirEmpty(t, store.Dir())
}

func TestReply_SlowArchiveDoesNotDelayReply(t *testing.T) {
	f := newFixture(t, &fakeSTT{text: "oi"}, &fakeDialogue{reply: "Olá"})
	f.archive.started = make(chan struct{})
	f.archive.release = make(chan struct{})

	done := make(chan struct{})
	go func() {
		defer close(done)
		if _, err := f.svc.Reply(context.Background(), ingest.Request{Kind: ingest.KindRawBytes, Bytes: []byte("abc")}); err != nil {
			t.Errorf("Reply: %v", err)
		}
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		close(f.archive.release)
		t.Fatal("Reply blocked on the archive upload")
	}

	<-f.archive.started
	entries, err := os.ReadDir(f.store.Dir())
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Errorf("recording must stay on disk until archived, found %d files", len(entries))
	}

	close(f.archive.release)
	f.settle(t)
	if f.archive.calls != 1 {
		t.Errorf("archive calls: %d", f.archive.calls)
	}
}

func TestReply_SlowNotifierDoesNotDelayFailure(t *testing.T) {
	f := newFixture(t, &fakeSTT{err: errors.New("whisper: 503")}, &fakeDialogue{})
	f.notifier.release = make(chan struct{})

	done := make(chan error, 1)
	go func() {
		_, err := f.svc.Reply(context.Background(), ingest.Request{Kind: ingest.KindRawBytes, Bytes: []byte("abc")})
		done <- err
	}()

	select {
	case err := <-done:
		if !errors.Is(err, voice.ErrTranscriptionFailed) {
			t.Errorf("got %v", err)
		}
	case <-time.After(2 * time.Second):
		close(f.notifier.release)
		t.Fatal("Reply blocked on the admin alert")
	}

	close(f.notifier.release)
	f.settle(t)
	if f.notifier.calls != 1 {
		t.Errorf("notifier calls: %d", f.notifier.calls)
	}
}
