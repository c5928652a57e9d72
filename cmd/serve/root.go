package serve

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	cmdUtil "github.com/ValentinKolb/redikv/cmd/util"
	"github.com/ValentinKolb/redikv/lib/logging"
	"github.com/ValentinKolb/redikv/resp/server"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	serveCmdConfig = server.Config{}
	ServeCmd       = &cobra.Command{
		Use:     "serve",
		Short:   "Start the redikv server",
		Long:    `Start the redikv server with the specified configuration. The configuration can be set via command line flags or environment variables. The format of the environment variables is REDIKV_<flag> (e.g. REDIKV_LISTEN_ADDR=0.0.0.0:6379)`,
		PreRunE: processConfig,
		RunE:    run,
	}
)

func init() {
	// initialize viper
	cobra.OnInitialize(initConfig)

	// add flags
	key := "listen-addr"
	ServeCmd.PersistentFlags().String(key, "0.0.0.0:6379", cmdUtil.WrapString("The address on which the server accepts client connections"))

	key = "metrics-addr"
	ServeCmd.PersistentFlags().String(key, "", cmdUtil.WrapString("The address on which the Prometheus /metrics endpoint is exposed (empty disables it)"))

	key = "log-level"
	ServeCmd.PersistentFlags().String(key, "info", cmdUtil.WrapString("LogLevel is the level at which logs will be output (debug, info, warn, error)"))

	key = "backend"
	ServeCmd.PersistentFlags().String(key, "tikv", cmdUtil.WrapString("Backend to store data in (tikv, memory). The memory backend is for development only and loses all data on exit"))

	key = "backend-addrs"
	ServeCmd.PersistentFlags().String(key, "127.0.0.1:2379", cmdUtil.WrapString("Comma-separated list of placement driver addresses of the backend cluster"))

	key = "backend-timeout"
	ServeCmd.PersistentFlags().Int(key, 10, cmdUtil.WrapString("Timeout in seconds for backend operations"))

	key = "backend-ca-file"
	ServeCmd.PersistentFlags().String(key, "", cmdUtil.WrapString("Path to the CA certificate for the backend connection (enables TLS together with the cert and key files)"))

	key = "backend-cert-file"
	ServeCmd.PersistentFlags().String(key, "", cmdUtil.WrapString("Path to the client certificate for the backend connection"))

	key = "backend-key-file"
	ServeCmd.PersistentFlags().String(key, "", cmdUtil.WrapString("Path to the client key for the backend connection"))

	key = "allow-batch"
	ServeCmd.PersistentFlags().Bool(key, false, cmdUtil.WrapString("Whether to batch backend requests when overloaded"))

	key = "max-batch-size"
	ServeCmd.PersistentFlags().Int(key, 8, cmdUtil.WrapString("Maximum number of backend requests in one batch"))

	key = "max-batch-wait"
	ServeCmd.PersistentFlags().Int(key, 0, cmdUtil.WrapString("Maximum time in milliseconds to wait for filling a batch"))

	key = "overload-threshold"
	ServeCmd.PersistentFlags().Int(key, 200, cmdUtil.WrapString("Backend load threshold above which batching kicks in"))

	key = "max-inflight"
	ServeCmd.PersistentFlags().Int(key, 0, cmdUtil.WrapString("Maximum number of in-flight backend requests per store (0 = unlimited)"))

	key = "keepalive-time"
	ServeCmd.PersistentFlags().Int(key, 10, cmdUtil.WrapString("gRPC keepalive ping interval in seconds for backend connections"))

	key = "keepalive-timeout"
	ServeCmd.PersistentFlags().Int(key, 3, cmdUtil.WrapString("gRPC keepalive timeout in seconds for backend connections"))

	key = "concurrency"
	ServeCmd.PersistentFlags().Int(key, 4, cmdUtil.WrapString("Number of transactional backend sessions; new transactions are spread over them round robin"))

	key = "meta-key-number"
	ServeCmd.PersistentFlags().Int(key, 16, cmdUtil.WrapString("Number of meta key shards per collection. Higher values reduce write conflicts on size counters. MUST NOT change once data has been written"))

	key = "txn-retries"
	ServeCmd.PersistentFlags().Int(key, 3, cmdUtil.WrapString("How many times to retry a command on transaction write conflicts"))

	key = "use-txn-api"
	ServeCmd.PersistentFlags().Bool(key, true, cmdUtil.WrapString("Use the transactional backend API. When disabled only plain string and key commands are served, directly on the raw API"))
}

// processConfig reads the configuration from the command line flags and environment variables and converts it to the server configuration
func processConfig(cmd *cobra.Command, _ []string) error {
	// bind the flags to viper
	if err := viper.BindPFlags(cmd.Flags()); err != nil {
		return err
	}

	serveCmdConfig.ListenAddr = viper.GetString("listen-addr")
	serveCmdConfig.MetricsAddr = viper.GetString("metrics-addr")
	serveCmdConfig.LogLevel = viper.GetString("log-level")
	serveCmdConfig.BackendKind = server.BackendKind(viper.GetString("backend"))
	serveCmdConfig.Concurrency = viper.GetInt("concurrency")
	serveCmdConfig.MetaSlots = uint16(viper.GetInt("meta-key-number"))
	serveCmdConfig.TxnRetries = viper.GetInt("txn-retries")
	serveCmdConfig.UseTxnAPI = viper.GetBool("use-txn-api")

	serveCmdConfig.Backend.Addrs = strings.Split(viper.GetString("backend-addrs"), ",")
	serveCmdConfig.Backend.Timeout = time.Duration(viper.GetInt("backend-timeout")) * time.Second
	serveCmdConfig.Backend.CAPath = viper.GetString("backend-ca-file")
	serveCmdConfig.Backend.CertPath = viper.GetString("backend-cert-file")
	serveCmdConfig.Backend.KeyPath = viper.GetString("backend-key-file")
	serveCmdConfig.Backend.AllowBatch = viper.GetBool("allow-batch")
	serveCmdConfig.Backend.MaxBatchSize = uint(viper.GetInt("max-batch-size"))
	serveCmdConfig.Backend.MaxBatchWaitTime = time.Duration(viper.GetInt("max-batch-wait")) * time.Millisecond
	serveCmdConfig.Backend.OverloadThreshold = uint(viper.GetInt("overload-threshold"))
	serveCmdConfig.Backend.MaxInflightRequests = uint(viper.GetInt("max-inflight"))
	serveCmdConfig.Backend.GrpcKeepaliveTime = time.Duration(viper.GetInt("keepalive-time")) * time.Second
	serveCmdConfig.Backend.GrpcKeepaliveTimeout = time.Duration(viper.GetInt("keepalive-timeout")) * time.Second

	return logging.InitLoggers(serveCmdConfig.LogLevel)
}

// run starts the redikv server and blocks until it is terminated
func run(_ *cobra.Command, _ []string) error {
	srv, err := server.New(serveCmdConfig)
	if err != nil {
		return err
	}

	// stop the server on SIGINT/SIGTERM
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return srv.Serve(ctx)
}

// initConfig reads in serveCmdConfig file and ENV variables if set.
func initConfig() {
	// load env files
	_ = godotenv.Load(".env")
	_ = godotenv.Load(".env.local")

	// initialize viper
	viper.SetEnvPrefix("redikv")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv() // read in environment variables that match
}
