package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"time"

	pyroscope "github.com/grafana/pyroscope-go"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/yanun0323/logs"
	"github.com/yanun0323/pkg/sys"

	"main/internal/audit"
	"main/internal/exec"
	"main/internal/exec/boundary"
	"main/internal/keyring"
	"main/internal/obs"
	"main/internal/ops"
	"main/internal/risk"
	"main/internal/schema"
	"main/internal/signing"
	"main/pkg/conn"
)

func main() {
	configPath := flag.String("config", "", "Path to JSON config")
	metricsAddr := flag.String("metrics-addr", "", "Prometheus listen address (empty=disabled)")
	profileAddr := flag.String("profile-addr", "", "Pyroscope server address (empty=disabled)")
	demoOrder := flag.String("demo-order", "", "Submit one order payload at startup and log the ack")
	flag.Parse()

	if *profileAddr != "" {
		profiler, err := pyroscope.Start(pyroscope.Config{
			ApplicationName: "exec-frontend",
			ServerAddress:   *profileAddr,
			ProfileTypes: []pyroscope.ProfileType{
				pyroscope.ProfileCPU,
				pyroscope.ProfileAllocObjects,
				pyroscope.ProfileInuseSpace,
			},
		})
		if err != nil {
			log.Fatalf("pyroscope start failed: %v", err)
		}
		defer func() {
			_ = profiler.Stop()
		}()
	}

	loaded, err := ops.Load(*configPath)
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	metrics := obs.NewMetrics()
	sinks := obs.Fanout{metrics}
	recorder := &signRecorder{metrics: metrics}
	if *metricsAddr != "" {
		prom := obs.NewPromSink()
		sinks = append(sinks, prom)
		recorder.prom = prom
		go serveMetrics(*metricsAddr)
	}
	if loaded.Audit.Enabled {
		store, err := buildAudit(loaded.Audit)
		if err != nil {
			log.Fatalf("audit setup failed: %v", err)
		}
		store.Run(ctx)
		sinks = append(sinks, store)
		recorder.store = store
	}

	provider, err := buildProvider(loaded.Keys)
	if err != nil {
		log.Fatalf("key provider setup failed: %v", err)
	}
	signer := signing.New(provider)
	signer.SetRecorder(recorder)
	if err := preloadKeys(ctx, signer, provider, loaded.Keys.Preload); err != nil {
		log.Fatalf("key preload failed: %v", err)
	}

	transport, err := buildBoundary(ctx, loaded.Boundary)
	if err != nil {
		log.Fatalf("boundary setup failed: %v", err)
	}

	checker := exec.NewChecker(
		loaded.Exec.Checker,
		loaded.Registry,
		risk.NewEngine(loaded.Risk),
		nil,
	)
	adapter, err := exec.NewAdapter(loaded.Exec, checker, transport, signer, sinks, metrics)
	if err != nil {
		log.Fatalf("adapter setup failed: %v", err)
	}

	pool, err := exec.NewPool(adapter, 4, 1024)
	if err != nil {
		log.Fatalf("pool setup failed: %v", err)
	}
	pool.Run(ctx)

	logs.Info("execution frontend started")

	if *demoOrder != "" {
		submitDemo(ctx, adapter, []byte(*demoOrder))
	}

	<-sys.Shutdown()
	logs.Info("shutting down")
	cancel()
	time.Sleep(100 * time.Millisecond)
}

// signRecorder fans signing operation outcomes to metrics and the audit
// trail. Payload bytes are digested by the audit store, never persisted.
type signRecorder struct {
	metrics *obs.Metrics
	prom    *obs.PromSink
	store   *audit.Store
}

func (r *signRecorder) Record(op string, keyID string, payload []byte, ok bool, elapsed time.Duration) {
	outcome := schema.OutcomePass
	if !ok {
		outcome = schema.OutcomeReject
	}
	r.metrics.ObserveSignOp(signOp(op), outcome, elapsed)
	r.prom.ObserveSignOp(signOp(op), outcome, elapsed)
	r.store.RecordSigning(op, keyID, payload, outcome)
}

func signOp(op string) obs.SignOp {
	switch op {
	case "keygen":
		return obs.SignOpKeygen
	case "verify":
		return obs.SignOpVerify
	default:
		return obs.SignOpSign
	}
}

func buildProvider(cfg ops.KeysConfig) (signing.KeyProvider, error) {
	if cfg.Provider == "vault" {
		return keyring.NewVault(cfg.Vault)
	}
	return keyring.NewMemory(), nil
}

func preloadKeys(ctx context.Context, signer *signing.Service, provider signing.KeyProvider, preload []ops.PreloadKey) error {
	for _, entry := range preload {
		key, err := signer.Keygen(entry.Seed)
		if err != nil {
			return err
		}
		if err := provider.StoreKey(ctx, entry.ID, key); err != nil {
			return err
		}
		key.Zero()
	}
	return nil
}

func buildAudit(cfg ops.AuditConfig) (*audit.Store, error) {
	client, err := conn.New(conn.Option{
		Host:     cfg.Host,
		Port:     cfg.Port,
		User:     cfg.User,
		Password: cfg.Password,
		Database: cfg.Database,
	})
	if err != nil {
		return nil, err
	}
	return audit.NewStore(client, cfg.QueueCap)
}

func buildBoundary(ctx context.Context, cfg ops.BoundaryConfig) (exec.Transport, error) {
	if cfg.SocketPath == "" {
		return boundary.NewLoopback(boundary.LoopbackConfig{}), nil
	}
	if cfg.Embedded {
		server, err := boundary.NewUDSServer(cfg.SocketPath, nil)
		if err != nil {
			return nil, err
		}
		if err := server.Listen(); err != nil {
			return nil, err
		}
		go func() {
			if err := server.Run(ctx); err != nil {
				logs.Error("boundary server stopped, err: " + err.Error())
			}
		}()
	}
	return boundary.NewUDSTransport(cfg.SocketPath)
}

func submitDemo(ctx context.Context, adapter *exec.Adapter, order []byte) {
	ack, err := adapter.SendOrder(ctx, order)
	if err != nil {
		logs.Warn("demo order failed, err: " + err.Error())
		return
	}
	if ack.Accepted {
		logs.Info("demo order accepted")
	} else {
		logs.Warn("demo order rejected: " + ack.ReasonText())
	}
}

func serveMetrics(addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	if err := http.ListenAndServe(addr, mux); err != nil {
		logs.Error("metrics server stopped, err: " + err.Error())
	}
}
