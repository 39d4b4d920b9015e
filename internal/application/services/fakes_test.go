package services

import (
	"bytes"
	"context"
	"errors"
	"io"
	"mime/multipart"
	"net/textproto"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"file-share-api/internal/application/ports"
	"file-share-api/internal/domain/file"
	"file-share-api/internal/domain/user"
)

// memRepo is an in-memory file.Repository. Hook fields override single calls.
type memRepo struct {
	mu      sync.Mutex
	records map[file.ID]*file.Record

	CreateFn        func(ctx context.Context, r *file.Record) (*file.Record, error)
	FindExpiredFn   func(ctx context.Context, now time.Time, retention time.Duration) (file.Records, error)
	DeleteFn        func(ctx context.Context, id file.ID) error
	KnownKeysCalls  int
	incrementCalled int
}

func newMemRepo(records ...*file.Record) *memRepo {
	r := &memRepo{records: make(map[file.ID]*file.Record)}
	for _, rec := range records {
		r.records[rec.ID] = rec
	}
	return r
}

func clone(r *file.Record) *file.Record {
	c := *r
	c.Tags = append([]string(nil), r.Tags...)
	return &c
}

func (m *memRepo) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.records)
}

func (m *memRepo) Get(id file.ID) *file.Record {
	m.mu.Lock()
	defer m.mu.Unlock()
	if r, ok := m.records[id]; ok {
		return clone(r)
	}
	return nil
}

func (m *memRepo) Create(ctx context.Context, r *file.Record) (*file.Record, error) {
	if m.CreateFn != nil {
		return m.CreateFn(ctx, r)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records[r.ID] = clone(r)
	return clone(r), nil
}

func (m *memRepo) FindByID(_ context.Context, id file.ID) (*file.Record, error) {
	return m.Get(id), nil
}

func (m *memRepo) FindByRecipient(_ context.Context, userName string, page file.Page) (*file.RecordPage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var all file.Records
	for _, r := range m.records {
		if r.RecipientUserName == userName {
			all = append(all, clone(r))
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].CreatedAt.After(all[j].CreatedAt) })

	out := &file.RecordPage{Page: page, Total: int64(len(all))}
	for i := page.Offset(); i < len(all) && i < page.Offset()+page.Limit; i++ {
		out.Records = append(out.Records, all[i])
	}
	return out, nil
}

func (m *memRepo) FindLatestByUploaderSince(_ context.Context, uploader uuid.UUID, since time.Time) (*file.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var latest *file.Record
	for _, r := range m.records {
		if r.UploadedBy != uploader || r.CreatedAt.Before(since) {
			continue
		}
		if latest == nil || r.CreatedAt.After(latest.CreatedAt) {
			latest = r
		}
	}
	if latest == nil {
		return nil, nil
	}
	return clone(latest), nil
}

func (m *memRepo) FindExpiredOrOverdue(ctx context.Context, now time.Time, retention time.Duration) (file.Records, error) {
	if m.FindExpiredFn != nil {
		return m.FindExpiredFn(ctx, now, retention)
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	var out file.Records
	for _, r := range m.records {
		if !r.ExpiresAt.After(now) || !r.CreatedAt.After(now.Add(-retention)) {
			out = append(out, clone(r))
		}
	}
	return out, nil
}

func (m *memRepo) UpdateFields(_ context.Context, id file.ID, p file.Patch) (*file.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	r, ok := m.records[id]
	if !ok {
		return nil, nil
	}
	if p.SenderName != nil {
		r.SenderName = *p.SenderName
	}
	if p.Description != nil {
		r.Description = *p.Description
	}
	if p.Tags != nil {
		r.Tags = *p.Tags
	}
	if p.IsPublic != nil {
		r.IsPublic = *p.IsPublic
	}
	return clone(r), nil
}

func (m *memRepo) Delete(ctx context.Context, id file.ID) error {
	if m.DeleteFn != nil {
		return m.DeleteFn(ctx, id)
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.records[id]; !ok {
		return file.ErrNotFound
	}
	delete(m.records, id)
	return nil
}

func (m *memRepo) IncrementDownloadCount(_ context.Context, id file.ID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.incrementCalled++
	r, ok := m.records[id]
	if !ok {
		return file.ErrNotFound
	}
	r.DownloadCount++
	return nil
}

func (m *memRepo) Stats(_ context.Context, now time.Time, retention time.Duration) (file.Stats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var s file.Stats
	for _, r := range m.records {
		s.TotalFiles++
		s.TotalStorageBytes += r.SizeBytes
		if r.IsOverdue(now, retention) {
			s.ExpiredFiles++
			s.ExpiredStorageBytes += r.SizeBytes
		}
	}
	return s, nil
}

func (m *memRepo) KnownStorageKeys(_ context.Context, keys []string) (map[string]struct{}, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.KnownKeysCalls++
	byKey := make(map[string]struct{}, len(m.records))
	for _, r := range m.records {
		byKey[r.StorageKey] = struct{}{}
	}
	known := make(map[string]struct{})
	for _, k := range keys {
		if _, ok := byKey[k]; ok {
			known[k] = struct{}{}
		}
	}
	return known, nil
}

type blob struct {
	data     []byte
	mimeType string
	modified time.Time
}

// memBlobs is an in-memory ports.BlobStore and ports.BlobLister. Delete
// honours ctx cancellation like the real retrying store.
type memBlobs struct {
	mu      sync.Mutex
	objects map[string]blob

	PutErr     error
	FailDelete bool
	Deleted    []string
	now        func() time.Time
}

func newMemBlobs() *memBlobs {
	return &memBlobs{objects: make(map[string]blob), now: time.Now}
}

func (b *memBlobs) Put(ctx context.Context, key string, data []byte, mimeType string) error {
	if b.PutErr != nil {
		return b.PutErr
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.objects[key] = blob{data: append([]byte(nil), data...), mimeType: mimeType, modified: b.now()}
	return nil
}

func (b *memBlobs) seed(key string, data []byte, modified time.Time) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.objects[key] = blob{data: data, modified: modified}
}

func (b *memBlobs) Delete(ctx context.Context, key string) bool {
	if b.FailDelete || ctx.Err() != nil {
		return false
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.objects, key)
	b.Deleted = append(b.Deleted, key)
	return true
}

func (b *memBlobs) Exists(_ context.Context, key string) (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	_, ok := b.objects[key]
	return ok, nil
}

func (b *memBlobs) Open(_ context.Context, key string) (io.ReadCloser, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	o, ok := b.objects[key]
	if !ok {
		return nil, file.ErrBlobMissing
	}
	return &trackingBody{Reader: bytes.NewReader(o.data)}, nil
}

func (b *memBlobs) List(_ context.Context, prefix string) ([]ports.BlobInfo, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	var out []ports.BlobInfo
	for k, o := range b.objects {
		if strings.HasPrefix(k, prefix) {
			out = append(out, ports.BlobInfo{Key: k, Size: int64(len(o.data)), LastModified: o.modified})
		}
	}
	return out, nil
}

func (b *memBlobs) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.objects)
}

func (b *memBlobs) Has(key string) bool {
	ok, _ := b.Exists(context.Background(), key)
	return ok
}

type trackingBody struct {
	*bytes.Reader
	closed bool
}

func (t *trackingBody) Close() error {
	t.closed = true
	return nil
}

// FakeUserDirectory resolves users from a map keyed by username.
type FakeUserDirectory struct {
	users     map[string]*user.User
	Err       error
	ByIDCalls int
}

func newUserDirectory(names ...string) *FakeUserDirectory {
	d := &FakeUserDirectory{users: make(map[string]*user.User)}
	for _, n := range names {
		d.users[n] = &user.User{UUID: uuid.New(), UserName: n, Email: n + "@example.com"}
	}
	return d
}

func (d *FakeUserDirectory) Add(u *user.User) { d.users[u.UserName] = u }

func (d *FakeUserDirectory) FindByUsername(_ context.Context, name string) (*user.User, error) {
	if d.Err != nil {
		return nil, d.Err
	}
	return d.users[name], nil
}

func (d *FakeUserDirectory) FindByID(_ context.Context, id user.UUID) (*user.User, error) {
	d.ByIDCalls++
	if d.Err != nil {
		return nil, d.Err
	}
	for _, u := range d.users {
		if u.UUID == id {
			return u, nil
		}
	}
	return nil, nil
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []file.Event
}

func (p *recordingPublisher) Publish(e file.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
}

func (p *recordingPublisher) Types() []file.EventType {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]file.EventType, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Type)
	}
	return out
}

type filePart struct {
	field, name, mimeType string
	data                  []byte
}

// multipartReader encodes fields then files, in that order.
func multipartReader(t *testing.T, fields map[string]string, files ...filePart) *multipart.Reader {
	t.Helper()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		require.NoError(t, w.WriteField(k, fields[k]))
	}

	for _, f := range files {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", `form-data; name="`+f.field+`"; filename="`+f.name+`"`)
		h.Set("Content-Type", f.mimeType)
		pw, err := w.CreatePart(h)
		require.NoError(t, err)
		_, err = pw.Write(f.data)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	return multipart.NewReader(&buf, w.Boundary())
}

func pdfPart(name string) filePart {
	return filePart{field: "file", name: name, mimeType: "application/pdf", data: []byte("%PDF-1.7 body")}
}

var errBoom = errors.New("boom")

func fixedClock(t time.Time) func() time.Time { return func() time.Time { return t } }
