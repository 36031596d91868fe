// Package node defines the resolver node: it wires together the record
// store, the retention pruner and the monitoring endpoint, and handles the
// lifecycle of the entire system through a service registry.
package node

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path"
	"sync"
	"syscall"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"

	"github.com/restakelabs/resolver/custody"
	"github.com/restakelabs/resolver/db"
	"github.com/restakelabs/resolver/db/kv"
	"github.com/restakelabs/resolver/program"
	"github.com/restakelabs/resolver/pruner"
	"github.com/restakelabs/resolver/shared"
	"github.com/restakelabs/resolver/shared/backup"
	"github.com/restakelabs/resolver/shared/cmd"
	"github.com/restakelabs/resolver/shared/prometheus"
	"github.com/restakelabs/resolver/shared/tracing"
	"github.com/restakelabs/resolver/types"
)

var log = logrus.WithField("prefix", "node")

const resolverDBName = "resolverdata"

// ResolverNode handles the services running the slashing resolver. It
// registers every required service and manages graceful shutdown.
type ResolverNode struct {
	cliCtx    *cli.Context
	lock      sync.RWMutex
	services  *shared.ServiceRegistry
	stop      chan struct{} // Channel to wait for termination notifications.
	db        db.Database
	processor *program.Processor
}

// New creates a new node instance, sets up configuration options, and
// registers every required service.
func New(cliCtx *cli.Context) (*ResolverNode, error) {
	if err := tracing.Setup(
		"resolver", // Service name.
		cliCtx.String(cmd.TracingProcessNameFlag.Name),
		cliCtx.String(cmd.TracingEndpointFlag.Name),
		cliCtx.Float64(cmd.TraceSampleFractionFlag.Name),
		cliCtx.Bool(cmd.EnableTracingFlag.Name),
	); err != nil {
		return nil, err
	}

	node := &ResolverNode{
		cliCtx:   cliCtx,
		services: shared.NewServiceRegistry(),
		stop:     make(chan struct{}),
	}

	if err := node.startDB(cliCtx); err != nil {
		return nil, err
	}
	if err := node.registerPrunerService(cliCtx); err != nil {
		return nil, err
	}
	if err := node.registerPrometheusService(cliCtx); err != nil {
		return nil, err
	}

	programID := types.HexToPublicKey(cliCtx.String(cmd.ProgramIDFlag.Name))
	node.processor = program.NewProcessor(&program.Config{
		Database:  node.db,
		ProgramID: programID,
		Custody:   custody.NewLedger(),
	})
	return node, nil
}

// Processor exposes the instruction dispatcher backed by the node's store.
func (n *ResolverNode) Processor() *program.Processor {
	return n.processor
}

func (n *ResolverNode) startDB(cliCtx *cli.Context) error {
	baseDir := cliCtx.String(cmd.DataDirFlag.Name)
	dbPath := path.Join(baseDir, resolverDBName)
	clearDB := cliCtx.Bool(cmd.ClearDB.Name)
	forceClearDB := cliCtx.Bool(cmd.ForceClearDB.Name)
	programID := types.HexToPublicKey(cliCtx.String(cmd.ProgramIDFlag.Name))

	log.WithField("databasePath", dbPath).Info("Checking DB")
	d, err := kv.NewKVStore(dbPath, &kv.Config{ProgramID: programID})
	if err != nil {
		return err
	}
	clearDBConfirmed := false
	if clearDB && !forceClearDB {
		actionText := "This will delete your resolver database stored in your data directory. " +
			"Your database backups will not be removed - do you want to proceed? (Y/N)"
		deniedText := "Database will not be deleted. No changes have been made."
		clearDBConfirmed, err = confirmAction(actionText, deniedText)
		if err != nil {
			return err
		}
	}
	if clearDBConfirmed || forceClearDB {
		log.Warning("Removing database")
		if err := d.ClearDB(); err != nil {
			return err
		}
		d, err = kv.NewKVStore(dbPath, &kv.Config{ProgramID: programID})
		if err != nil {
			return errors.Wrap(err, "could not create new database")
		}
	}
	n.db = d
	return nil
}

func (n *ResolverNode) registerPrunerService(cliCtx *cli.Context) error {
	genesisUnix := cliCtx.Uint64(cmd.GenesisTimeFlag.Name)
	genesisTime := time.Now()
	if genesisUnix != 0 {
		genesisTime = time.Unix(int64(genesisUnix), 0)
	}
	svc := pruner.NewService(context.Background(), &pruner.Config{
		Database:    n.db,
		GenesisTime: genesisTime,
		MaxRoutines: cliCtx.Int(cmd.MaxGoroutines.Name),
	})
	return n.services.RegisterService(svc)
}

func (n *ResolverNode) registerPrometheusService(cliCtx *cli.Context) error {
	if cliCtx.Bool(cmd.DisableMonitoringFlag.Name) {
		return nil
	}
	service := prometheus.NewPrometheusService(
		fmt.Sprintf("%s:%d", cliCtx.String(cmd.MonitoringHostFlag.Name), cliCtx.Int(cmd.MonitoringPortFlag.Name)),
		n.services,
		prometheus.Handler{
			Path:    "/db/backup",
			Handler: backup.Handler(n.db, cliCtx.String(cmd.BackupWebhookOutputDir.Name)),
		},
	)
	return n.services.RegisterService(service)
}

// Start the resolver node and kick off every registered service.
func (n *ResolverNode) Start() {
	n.lock.Lock()
	n.services.StartAll()
	n.lock.Unlock()

	stop := n.stop
	go func() {
		sigc := make(chan os.Signal, 1)
		signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(sigc)
		<-sigc
		log.Info("Got interrupt, shutting down...")
		go n.Close()
		for i := 10; i > 0; i-- {
			<-sigc
			if i > 1 {
				log.WithField("times", i-1).Info("Already shutting down, interrupt more to panic")
			}
		}
		panic("Panic closing the resolver node")
	}()

	// Wait for stop channel to be closed.
	<-stop
}

// Close handles graceful shutdown of the system.
func (n *ResolverNode) Close() {
	n.lock.Lock()
	defer n.lock.Unlock()

	log.Info("Stopping resolver node")
	n.services.StopAll()
	if err := n.db.Close(); err != nil {
		log.Errorf("Failed to close database: %v", err)
	}
	close(n.stop)
}

func confirmAction(actionText, deniedText string) (bool, error) {
	var confirmed bool
	reader := os.Stdin
	log.Warn(actionText)

	buf := make([]byte, 1)
	n, err := reader.Read(buf)
	if err != nil {
		return false, err
	}
	if n > 0 && (buf[0] == 'Y' || buf[0] == 'y') {
		confirmed = true
	} else {
		log.Info(deniedText)
	}
	return confirmed, nil
}
