// Command tmu2mqtt 把 TMU 温度测量单元的串口数据转发到 MQTT broker。
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/edgexfoundry/go-mod-core-contracts/v4/clients/logger"
	"github.com/edgexfoundry/go-mod-core-contracts/v4/models"

	"github.com/linjuya-lu/tmu2mqtt_go/internal/bridge"
	"github.com/linjuya-lu/tmu2mqtt_go/internal/config"
	"github.com/linjuya-lu/tmu2mqtt_go/internal/metrics"
)

const serviceName = "tmu2mqtt"

// 退出码
const (
	exitOK    = 0
	exitSetup = 1
	exitFault = 2
)

type options struct {
	configFile string
	verbose    int
	logFile    string // 仅为兼容旧的启动参数，不使用
}

func main() {
	os.Exit(run(os.Args[1:], os.Stderr))
}

func run(args []string, stderr io.Writer) int {
	opts, err := parseArgs(args, stderr)
	if errors.Is(err, flag.ErrHelp) {
		return exitOK
	}
	if err != nil {
		fmt.Fprintln(stderr, "Command line argument error:", err)
		return exitSetup
	}

	lc := logger.NewClient(serviceName, logLevel(opts.verbose))
	if opts.logFile != "" {
		lc.Warnf("Log file %s ignored, logs are written to stdout", opts.logFile)
	}
	lc.Infof("Using configuration file %s", opts.configFile)

	cfg, err := config.LoadConfig(opts.configFile)
	if err != nil {
		lc.Errorf("Error: %v", err)
		return exitSetup
	}

	b, err := bridge.InitializeBridge(cfg, lc)
	if err != nil {
		lc.Errorf("Error: %v", err)
		return exitSetup
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)
	defer stop()

	if cfg.Bridge.MetricsAddr != "" {
		go func() {
			if err := metrics.Serve(ctx, cfg.Bridge.MetricsAddr, b.Health, lc); err != nil {
				lc.Errorf("Metrics server failed: %v", err)
			}
		}()
	}

	if err := b.Run(ctx); err != nil {
		return exitFault
	}
	return exitOK
}

func parseArgs(args []string, stderr io.Writer) (options, error) {
	opts := options{configFile: "./tmu2mqtt.cfg", verbose: 4}

	fs := flag.NewFlagSet(serviceName, flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&opts.configFile, "c", opts.configFile, "ini-style or YAML configuration file")
	fs.StringVar(&opts.configFile, "config", opts.configFile, "ini-style or YAML configuration file")
	fs.IntVar(&opts.verbose, "v", opts.verbose, "verbose level: 1-fatal, 2-error, 3-warning, 4-info, 5-debug")
	fs.IntVar(&opts.verbose, "verbose", opts.verbose, "verbose level: 1-fatal, 2-error, 3-warning, 4-info, 5-debug")
	fs.StringVar(&opts.logFile, "l", "", "log file name (ignored, logs go to stdout)")
	fs.StringVar(&opts.logFile, "logfile", "", "log file name (ignored, logs go to stdout)")
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "Usage: %s -c <configfile> -v <verbose level>\n\n", serviceName)
		fs.PrintDefaults()
		fmt.Fprintf(fs.Output(), "\nExample: %s -c /etc/tmu2mqtt.cfg -v 2\n", serviceName)
	}

	if err := fs.Parse(args); err != nil {
		return opts, err
	}
	if fs.NArg() > 0 {
		return opts, fmt.Errorf("unexpected argument %q", fs.Arg(0))
	}
	if opts.verbose < 1 || opts.verbose > 5 {
		return opts, fmt.Errorf("verbose level %d out of range 1-5", opts.verbose)
	}
	return opts, nil
}

// logLevel 把 1-5 映射到 EdgeX 日志级别，EdgeX 没有 fatal 级别
func logLevel(verbose int) string {
	switch verbose {
	case 1, 2:
		return models.ErrorLog
	case 3:
		return models.WarnLog
	case 5:
		return models.DebugLog
	default:
		return models.InfoLog
	}
}
