package service

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"sync"

	"github.com/google/uuid"
	"github.com/phrazzld/certify-api/internal/domain"
	"github.com/phrazzld/certify-api/internal/store"
)

// --- fake database driver ---
//
// Callback application opens a real *sql.Tx around the repository calls.
// The mock repositories ignore the transaction handle, so all the tests
// need is a driver whose Begin/Commit/Rollback succeed without touching
// anything.

type noopDriver struct{}

func (noopDriver) Open(name string) (driver.Conn, error) { return &noopConn{}, nil }

type noopConn struct{}

func (*noopConn) Prepare(query string) (driver.Stmt, error) {
	return nil, errors.New("noop driver does not support statements")
}
func (*noopConn) Close() error              { return nil }
func (*noopConn) Begin() (driver.Tx, error) { return noopTx{}, nil }

type noopTx struct{}

func (noopTx) Commit() error   { return nil }
func (noopTx) Rollback() error { return nil }

var registerDriverOnce sync.Once

// newTestDB returns a *sql.DB whose transactions are no-ops.
func newTestDB() *sql.DB {
	registerDriverOnce.Do(func() {
		sql.Register("service_noop", noopDriver{})
	})
	db, err := sql.Open("service_noop", "")
	if err != nil {
		panic(err)
	}
	return db
}

// --- certificate repository mock ---

type mockCertificateRepo struct {
	db *sql.DB

	createFn         func(ctx context.Context, cert *domain.Certificate) error
	getBySubjectFn   func(ctx context.Context, subjectID uuid.UUID, courseID string) (*domain.Certificate, error)
	getByKeyFn       func(ctx context.Context, key string) (*domain.Certificate, error)
	updateFn         func(ctx context.Context, cert *domain.Certificate) error
	createdCerts     []*domain.Certificate
	updatedCerts     []*domain.Certificate
}

func newMockCertificateRepo() *mockCertificateRepo {
	return &mockCertificateRepo{db: newTestDB()}
}

func (m *mockCertificateRepo) Create(ctx context.Context, cert *domain.Certificate) error {
	m.createdCerts = append(m.createdCerts, cert)
	if m.createFn != nil {
		return m.createFn(ctx, cert)
	}
	return nil
}

func (m *mockCertificateRepo) GetBySubjectAndCourse(ctx context.Context, subjectID uuid.UUID, courseID string) (*domain.Certificate, error) {
	if m.getBySubjectFn != nil {
		return m.getBySubjectFn(ctx, subjectID, courseID)
	}
	return nil, store.ErrCertificateNotFound
}

func (m *mockCertificateRepo) GetByKeyForUpdate(ctx context.Context, key string) (*domain.Certificate, error) {
	if m.getByKeyFn != nil {
		return m.getByKeyFn(ctx, key)
	}
	return nil, store.ErrCertificateNotFound
}

func (m *mockCertificateRepo) Update(ctx context.Context, cert *domain.Certificate) error {
	m.updatedCerts = append(m.updatedCerts, cert)
	if m.updateFn != nil {
		return m.updateFn(ctx, cert)
	}
	return nil
}

func (m *mockCertificateRepo) WithTx(tx *sql.Tx) CertificateRepository { return m }
func (m *mockCertificateRepo) DB() *sql.DB                            { return m.db }

// --- example certificate repository mock ---

type mockExampleRepo struct {
	db *sql.DB

	createSetFn  func(ctx context.Context, set *domain.ExampleCertificateSet) error
	createCertFn func(ctx context.Context, cert *domain.ExampleCertificate) error
	getByKeyFn   func(ctx context.Context, key string) (*domain.ExampleCertificate, error)
	updateFn     func(ctx context.Context, cert *domain.ExampleCertificate) error
	latestFn     func(ctx context.Context, courseID string) ([]*domain.ExampleCertificate, error)

	createdSets  []*domain.ExampleCertificateSet
	createdCerts []*domain.ExampleCertificate
	updatedCerts []*domain.ExampleCertificate
}

func newMockExampleRepo() *mockExampleRepo {
	return &mockExampleRepo{db: newTestDB()}
}

func (m *mockExampleRepo) CreateSet(ctx context.Context, set *domain.ExampleCertificateSet) error {
	m.createdSets = append(m.createdSets, set)
	if m.createSetFn != nil {
		return m.createSetFn(ctx, set)
	}
	return nil
}

func (m *mockExampleRepo) CreateCertificate(ctx context.Context, cert *domain.ExampleCertificate) error {
	m.createdCerts = append(m.createdCerts, cert)
	if m.createCertFn != nil {
		return m.createCertFn(ctx, cert)
	}
	return nil
}

func (m *mockExampleRepo) GetByKeyForUpdate(ctx context.Context, key string) (*domain.ExampleCertificate, error) {
	if m.getByKeyFn != nil {
		return m.getByKeyFn(ctx, key)
	}
	return nil, store.ErrExampleCertificateNotFound
}

func (m *mockExampleRepo) Update(ctx context.Context, cert *domain.ExampleCertificate) error {
	m.updatedCerts = append(m.updatedCerts, cert)
	if m.updateFn != nil {
		return m.updateFn(ctx, cert)
	}
	return nil
}

func (m *mockExampleRepo) LatestSetCertificates(ctx context.Context, courseID string) ([]*domain.ExampleCertificate, error) {
	if m.latestFn != nil {
		return m.latestFn(ctx, courseID)
	}
	return nil, store.ErrExampleSetNotFound
}

func (m *mockExampleRepo) WithTx(tx *sql.Tx) ExampleCertificateRepository { return m }
func (m *mockExampleRepo) DB() *sql.DB                                    { return m.db }

// --- queue client mock ---

type submission struct {
	key         string
	callbackURL string
	body        any
}

type mockQueue struct {
	submissions []submission
	// errs maps the submission index to the error to return; a nil map
	// accepts everything.
	errs map[int]error
}

func (m *mockQueue) Submit(ctx context.Context, key, callbackURL string, body any) error {
	idx := len(m.submissions)
	m.submissions = append(m.submissions, submission{key: key, callbackURL: callbackURL, body: body})
	if m.errs != nil {
		if err, ok := m.errs[idx]; ok {
			return err
		}
	}
	return nil
}

// --- gate mock ---

type mockGate struct {
	enabled bool
	err     error
	calls   []string
}

func (m *mockGate) IsEnabledForCourse(ctx context.Context, courseID string) (bool, error) {
	m.calls = append(m.calls, courseID)
	return m.enabled, m.err
}

// --- generation setting store mock ---

type mockSettingStore struct {
	global  *domain.GenerationSetting
	courses map[string]*domain.CourseGenerationSetting

	globalAppends []bool
	courseAppends map[string][]bool

	latestGlobalErr error
	latestCourseErr error
}

func newMockSettingStore() *mockSettingStore {
	return &mockSettingStore{
		courses:       make(map[string]*domain.CourseGenerationSetting),
		courseAppends: make(map[string][]bool),
	}
}

func (m *mockSettingStore) AppendGlobal(ctx context.Context, enabled bool) error {
	m.globalAppends = append(m.globalAppends, enabled)
	m.global = &domain.GenerationSetting{Enabled: enabled}
	return nil
}

func (m *mockSettingStore) AppendCourse(ctx context.Context, courseID string, enabled bool) error {
	m.courseAppends[courseID] = append(m.courseAppends[courseID], enabled)
	m.courses[courseID] = &domain.CourseGenerationSetting{CourseID: courseID, Enabled: enabled}
	return nil
}

func (m *mockSettingStore) LatestGlobal(ctx context.Context) (*domain.GenerationSetting, error) {
	if m.latestGlobalErr != nil {
		return nil, m.latestGlobalErr
	}
	if m.global == nil {
		return nil, store.ErrNotFound
	}
	return m.global, nil
}

func (m *mockSettingStore) LatestCourse(ctx context.Context, courseID string) (*domain.CourseGenerationSetting, error) {
	if m.latestCourseErr != nil {
		return nil, m.latestCourseErr
	}
	setting, ok := m.courses[courseID]
	if !ok {
		return nil, store.ErrNotFound
	}
	return setting, nil
}
