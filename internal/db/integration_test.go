//go:build integration

package db

import (
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"os/exec"
	"testing"
	"time"

	"github.com/zulandar/gramportal/internal/config"
	"github.com/zulandar/gramportal/internal/store"
)

// testSQLServer runs a MySQL-compatible Dolt server for integration tests.
type testSQLServer struct {
	Port int
	Dir  string
	cmd  *exec.Cmd
}

// startSQLServer initializes a Dolt repo in a temp directory and starts
// dolt sql-server on a free port. The server is stopped when the test
// completes.
func startSQLServer(t *testing.T) *testSQLServer {
	t.Helper()

	dir := t.TempDir()

	for _, kv := range [][2]string{
		{"user.name", "Test Runner"},
		{"user.email", "test@gramportal.dev"},
	} {
		cfg := exec.Command("dolt", "config", "--global", "--add", kv[0], kv[1])
		cfg.Dir = dir
		cfg.CombinedOutput() // already set is fine
	}

	init := exec.Command("dolt", "init")
	init.Dir = dir
	if out, err := init.CombinedOutput(); err != nil {
		t.Fatalf("dolt init: %s\n%s", err, out)
	}

	port := freePort(t)
	cmd := exec.Command("dolt", "sql-server",
		"--port", fmt.Sprintf("%d", port),
		"--host", "127.0.0.1",
	)
	cmd.Dir = dir
	if err := cmd.Start(); err != nil {
		t.Fatalf("dolt sql-server start: %v", err)
	}

	srv := &testSQLServer{Port: port, Dir: dir, cmd: cmd}
	t.Cleanup(func() {
		srv.cmd.Process.Kill()
		srv.cmd.Wait()
	})

	waitForServer(t, port)
	return srv
}

func (s *testSQLServer) storeConfig(database string) config.StoreConfig {
	return config.StoreConfig{
		Driver:   "mysql",
		Host:     "127.0.0.1",
		Port:     s.Port,
		User:     "root",
		Database: database,
	}
}

func freePort(t *testing.T) int {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("find free port: %v", err)
	}
	port := l.Addr().(*net.TCPAddr).Port
	l.Close()
	return port
}

// waitForServer polls until the server accepts TCP connections.
func waitForServer(t *testing.T, port int) {
	t.Helper()
	deadline := time.Now().Add(10 * time.Second)
	addr := fmt.Sprintf("127.0.0.1:%d", port)
	for time.Now().Before(deadline) {
		conn, err := net.DialTimeout("tcp", addr, 100*time.Millisecond)
		if err == nil {
			conn.Close()
			return
		}
		time.Sleep(100 * time.Millisecond)
	}
	t.Fatalf("sql server not ready on port %d after 10s", port)
}

// openMySQL creates the named database and returns its store config.
func openMySQL(t *testing.T, srv *testSQLServer, name string) config.StoreConfig {
	t.Helper()
	sc := srv.storeConfig(name)
	adminDB, err := ConnectAdmin(sc)
	if err != nil {
		t.Fatalf("ConnectAdmin: %v", err)
	}
	if err := CreateDatabase(adminDB, name); err != nil {
		t.Fatalf("CreateDatabase: %v", err)
	}
	return sc
}

func TestIntegration_ConnectAdmin(t *testing.T) {
	srv := startSQLServer(t)
	db, err := ConnectAdmin(srv.storeConfig(""))
	if err != nil {
		t.Fatalf("ConnectAdmin: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("get sql.DB: %v", err)
	}
	if err := sqlDB.Ping(); err != nil {
		t.Fatalf("ping: %v", err)
	}
}

func TestIntegration_CreateAndDropDatabase(t *testing.T) {
	srv := startSQLServer(t)
	sc := srv.storeConfig("gramportal_idem")
	adminDB, err := ConnectAdmin(sc)
	if err != nil {
		t.Fatalf("ConnectAdmin: %v", err)
	}
	for i := 0; i < 2; i++ {
		if err := CreateDatabase(adminDB, sc.Database); err != nil {
			t.Fatalf("CreateDatabase (%d): %v", i+1, err)
		}
	}
	if _, err := Open(sc); err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := DropDatabase(adminDB, sc.Database); err != nil {
		t.Fatalf("DropDatabase: %v", err)
	}
	if err := DropDatabase(adminDB, sc.Database); err != nil {
		t.Fatalf("DropDatabase of missing database: %v", err)
	}
}

func TestIntegration_AutoMigrate(t *testing.T) {
	srv := startSQLServer(t)
	sc := openMySQL(t, srv, "gramportal_migrate")
	db, err := Open(sc)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := AutoMigrate(db); err != nil {
		t.Fatalf("AutoMigrate (2nd): %v", err)
	}

	var tables []string
	if err := db.Raw("SHOW TABLES").Scan(&tables).Error; err != nil {
		t.Fatalf("SHOW TABLES: %v", err)
	}
	tableSet := make(map[string]bool)
	for _, tbl := range tables {
		tableSet[tbl] = true
	}
	for _, want := range []string{"collections", "session_entries", "drafts", "queued_submissions", "asset_entries"} {
		if !tableSet[want] {
			t.Errorf("expected table %q not found; got tables: %v", want, tables)
		}
	}

	type columnInfo struct {
		Field string `gorm:"column:Field"`
	}
	var cols []columnInfo
	if err := db.Raw("DESCRIBE session_entries").Scan(&cols).Error; err != nil {
		t.Fatalf("DESCRIBE session_entries: %v", err)
	}
	found := false
	for _, c := range cols {
		if c.Field == "session_key" {
			found = true
		}
	}
	if !found {
		t.Errorf("session_entries missing column session_key; got %v", cols)
	}
}

func TestIntegration_GormStoreRoundTrip(t *testing.T) {
	srv := startSQLServer(t)
	sc := openMySQL(t, srv, "gramportal_store")
	db, err := Open(sc)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	s := store.NewGormStore(db, 0)

	records := []json.RawMessage{
		json.RawMessage(`{"id":"2","villageName":"Rampur"}`),
		json.RawMessage(`{"id":"1","villageName":"Gram Panchayat A"}`),
	}
	if err := s.Save(store.Villages, records); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, err := s.Load(store.Villages)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(got) != 2 || string(got[0]) != string(records[0]) {
		t.Errorf("Load = %s, want stored order", got)
	}

	if err := s.SetSession(store.SelectedVillage, "2"); err != nil {
		t.Fatalf("SetSession: %v", err)
	}
	v, ok, err := s.GetSession(store.SelectedVillage)
	if err != nil || !ok || v != "2" {
		t.Errorf("GetSession = %q, %v, %v", v, ok, err)
	}

	d := store.Draft{Form: "requirement", Data: map[string]string{"title": "Well"}, Step: 2}
	if err := s.SaveDraft(d); err != nil {
		t.Fatalf("SaveDraft: %v", err)
	}
	loaded, ok, err := s.LoadDraft("requirement")
	if err != nil || !ok {
		t.Fatalf("LoadDraft = %v, %v", ok, err)
	}
	if loaded.Step != 2 || loaded.Data["title"] != "Well" {
		t.Errorf("LoadDraft = %+v", loaded)
	}
}

func TestIntegration_QuotaExceeded(t *testing.T) {
	srv := startSQLServer(t)
	sc := openMySQL(t, srv, "gramportal_quota")
	db, err := Open(sc)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	s := store.NewGormStore(db, 16)
	err = s.Save(store.Requirements, []json.RawMessage{json.RawMessage(`{"title":"a long requirement title"}`)})
	var sf *store.StorageFault
	if !errors.As(err, &sf) {
		t.Fatalf("Save over quota = %v, want StorageFault", err)
	}
	got, err := s.Load(store.Requirements)
	if err != nil || len(got) != 0 {
		t.Errorf("Load after rejected save = %v, %v; want empty", got, err)
	}
}
