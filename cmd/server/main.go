package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"ereea.space/internal/persistence/archive"
	"ereea.space/internal/persistence/indexdb"
	persistlog "ereea.space/internal/persistence/log"
	"ereea.space/internal/persistence/snapshot"
	"ereea.space/internal/sim/tuning"
	"ereea.space/internal/sim/world"
	"ereea.space/internal/transport/hub"
	"ereea.space/internal/transport/observer"
	"ereea.space/internal/transport/stream"
)

func main() {
	_ = godotenv.Load()

	var (
		addr       = flag.String("addr", envString("EREEA_ADDR", ":8080"), "http listen address")
		streamAddr = flag.String("stream_addr", envString("EREEA_STREAM_ADDR", "127.0.0.1:8081"), "line-delimited JSON stream listen address (empty to disable)")
		dataDir    = flag.String("data", envString("EREEA_DATA", "./data"), "runtime data directory")
		seed       = flag.Int64("seed", envInt64("EREEA_SEED", time.Now().UnixNano()), "map seed")
		tuningPath = flag.String("tuning", "./configs/tuning.yaml", "path to tuning.yaml")
		runID      = flag.String("run", "", "run id (default: random uuid)")
		disableDB  = flag.Bool("disable_db", false, "disable the sqlite run index")
		observerQ  = flag.Int("observer_queue", 16, "per-observer queue length")
	)
	flag.Parse()

	logger := log.New(os.Stdout, "[server] ", log.LstdFlags|log.Lmicroseconds)

	tune, err := tuning.Load(*tuningPath)
	if err != nil {
		if !os.IsNotExist(err) {
			logger.Fatalf("load tuning: %v", err)
		}
		logger.Printf("tuning not found (%s); using defaults", *tuningPath)
		tune = tuning.Defaults()
	}

	id := strings.TrimSpace(*runID)
	if id == "" {
		id = uuid.NewString()
	}
	runDir := filepath.Join(*dataDir, "runs", id)
	if err := os.MkdirAll(runDir, 0o755); err != nil {
		logger.Fatalf("data dir: %v", err)
	}

	w, err := world.New(world.WorldConfig{RunID: id, Seed: *seed, Tuning: tune}, prefixed("[world] "))
	if err != nil {
		logger.Fatalf("world: %v", err)
	}
	logger.Printf("run=%s seed=%d map=%dx%d carves=%d", id, *seed, tune.Map.Size, tune.Map.Size, w.Generation().Carves)

	idx, err := openRunIndex(runDir, id, *disableDB)
	if err != nil {
		logger.Fatalf("open run index: %v", err)
	}
	if err := idx.RecordRunStart(*seed, tune, w.Generation().Carves); err != nil {
		logger.Printf("index: record run start: %v", err)
	}

	tickLog := persistlog.NewTickLogger(runDir)
	defer tickLog.Close()
	w.SetTickLogger(multiTickLogger{a: tickLog, b: idx})

	snapCh := make(chan snapshot.SnapshotV1, 2)
	w.SetSnapshotSink(snapCh)

	h := hub.New(*observerQ, prefixed("[hub] "))
	obs := observer.NewServer(w, h, prefixed("[observer] "))

	srv := &http.Server{
		Addr:              *addr,
		Handler:           newMux(w, h, obs, idx),
		ReadHeaderTimeout: 5 * time.Second,
	}
	ln, err := net.Listen("tcp", *addr)
	if err != nil {
		logger.Fatalf("listen %s: %v", *addr, err)
	}
	var streamLn net.Listener
	if s := strings.TrimSpace(*streamAddr); s != "" {
		if streamLn, err = net.Listen("tcp", s); err != nil {
			logger.Fatalf("listen stream %s: %v", s, err)
		}
	}

	ctx, cancel := signalContext()
	defer cancel()
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		err := w.Run(gctx)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})
	g.Go(func() error { return h.Run(gctx, w.Snapshots()) })
	g.Go(func() error {
		writeSnapshots(gctx, snapCh, runDir, idx, logger)
		return nil
	})
	if streamLn != nil {
		ss := stream.NewServer(h, prefixed("[stream] "))
		g.Go(func() error { return ss.Serve(gctx, streamLn) })
		logger.Printf("stream on %s", streamLn.Addr())
	}
	g.Go(func() error {
		logger.Printf("listening on %s", ln.Addr())
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		ctx2, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel2()
		return srv.Shutdown(ctx2)
	})
	g.Go(func() error {
		select {
		case <-gctx.Done():
			return nil
		case rep := <-w.Done():
			logger.Printf("mission complete at tick %d; exploration=%.1f%% robots=%d conflicts=%d",
				rep.CompleteTick, rep.ExplorationPercentage, rep.Robots, rep.ConflictCount)
			idx.RecordRunEnd(rep)
		}
		select {
		case <-gctx.Done():
		case <-time.After(tune.ShutdownGrace()):
		}
		cancel()
		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Printf("stopped: %v", err)
	}
	if err := idx.Close(); err != nil {
		logger.Printf("index close: %v", err)
	}
	logger.Printf("bye run=%s tick=%d", id, w.CurrentTick())
}

// writeSnapshots persists archive snapshots until ctx ends, then drains
// whatever the world already queued.
func writeSnapshots(ctx context.Context, ch <-chan snapshot.SnapshotV1, runDir string, idx *indexdb.SQLiteIndex, logger *log.Logger) {
	write := func(snap snapshot.SnapshotV1) {
		path := filepath.Join(runDir, "snapshots", snapshot.FileName(snap.Header.Tick))
		if err := snapshot.WriteSnapshot(path, snap); err != nil {
			logger.Printf("snapshot write: %v", err)
			return
		}
		idx.RecordSnapshot(path, snap)
		if archived, ok, err := archive.ArchiveMissionSnapshot(runDir, path, snap); err != nil {
			logger.Printf("archive mission snapshot: %v", err)
		} else if ok {
			logger.Printf("archived final snapshot %s", archived)
		}
	}
	for {
		select {
		case snap := <-ch:
			write(snap)
		case <-ctx.Done():
			for {
				select {
				case snap := <-ch:
					write(snap)
				default:
					return
				}
			}
		}
	}
}

type multiTickLogger struct {
	a world.TickLogger
	b world.TickLogger
}

func (m multiTickLogger) WriteTick(entry world.TickLogEntry) error {
	if m.a != nil {
		_ = m.a.WriteTick(entry)
	}
	if m.b != nil {
		_ = m.b.WriteTick(entry)
	}
	return nil
}

func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	ch := make(chan os.Signal, 2)
	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-ch
		cancel()
	}()
	return ctx, cancel
}

func prefixed(p string) *log.Logger {
	return log.New(os.Stdout, p, log.LstdFlags|log.Lmicroseconds)
}

func envString(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func envInt64(key string, def int64) int64 {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return def
	}
	return n
}
