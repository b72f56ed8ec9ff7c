package microwire

import (
	"context"
	"log/slog"
	"net"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/minhpq/microsql/internal/engine"
	"github.com/minhpq/microsql/internal/sql/executor"
)

type ServerConfig struct {
	Addr    string
	DataDir string
	DBName  string
}

// shared is the one database behind the server. The engine has no internal
// locking, so every operation crosses mu; connections are goroutines but
// statements execute one at a time.
type shared struct {
	mu sync.Mutex
	db *engine.Database
	ex *executor.Executor
}

func Run(sc ServerConfig) error {
	db, err := engine.Open(sc.DataDir, sc.DBName)
	if err != nil {
		return err
	}
	sh := &shared{db: db, ex: executor.NewExecutor(db)}

	ln, err := net.Listen("tcp", sc.Addr)
	if err != nil {
		return err
	}
	defer func() { _ = ln.Close() }()

	slog.Info("microsql tcp server listening", "addr", sc.Addr, "db", sc.DBName, "snapshot", db.SnapshotPath())

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		<-ctx.Done()
		_ = ln.Close()
	}()

	for {
		conn, err := ln.Accept()
		if err != nil {
			select {
			case <-ctx.Done():
				return nil
			default:
			}
			slog.Error("accept failed", "err", err)
			continue
		}
		go handleConn(ctx, conn, sh)
	}
}

func handleConn(ctx context.Context, conn net.Conn, sh *shared) {
	defer func() { _ = conn.Close() }()
	_ = conn.SetDeadline(time.Time{})

	session := uuid.New().String()
	slog.Info("client connected", "session", session, "remote", conn.RemoteAddr().String())
	defer slog.Info("client disconnected", "session", session)

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		var req Request
		if err := ReadFrame(conn, &req); err != nil {
			// Client closed or bad frame.
			return
		}

		resp := sh.handle(req)
		if resp.Error != "" {
			slog.Debug("request failed", "session", session, "op", req.Op, "err", resp.Error)
		}
		if err := WriteFrame(conn, resp); err != nil {
			return
		}
	}
}

func (sh *shared) handle(req Request) Response {
	sh.mu.Lock()
	defer sh.mu.Unlock()

	resp := Response{ID: req.ID}
	switch req.Op {
	case OpExecute, "":
		res, err := sh.ex.ExecSQL(req.SQL)
		if err != nil {
			resp.Error = err.Error()
			return resp
		}
		resp.Result = res
	case OpInsert:
		if err := sh.db.InsertRow(req.Table, req.Fields); err != nil {
			resp.Error = err.Error()
			return resp
		}
		resp.Result = &executor.Result{AffectedRows: 1}
	case OpTables:
		for _, name := range sh.db.TableNames() {
			resp.Tables = append(resp.Tables, sh.tableInfo(name))
		}
	case OpSchema:
		if _, err := sh.db.Schema(req.Table); err != nil {
			resp.Error = err.Error()
			return resp
		}
		resp.Tables = []TableInfo{sh.tableInfo(req.Table)}
	default:
		resp.Error = "microwire: unknown op " + req.Op
	}
	return resp
}

func (sh *shared) tableInfo(name string) TableInfo {
	cols, _ := sh.db.Schema(name)
	return TableInfo{
		Name:          name,
		Columns:       cols,
		PrimaryKey:    sh.db.PrimaryKey(name),
		UniqueColumns: sh.db.UniqueColumns(name),
		RowCount:      sh.db.RowCount(name),
	}
}
