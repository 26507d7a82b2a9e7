package main

import (
	"flag"
	"fmt"

	"github.com/zeromicro/go-zero/rest"

	"hypergate/internal/cli"
	"hypergate/internal/config"
	"hypergate/internal/handler"
	"hypergate/internal/svc"
)

var configFile = flag.String("f", "etc/hypergate.yaml", "the config file")

func main() {
	flag.Parse()

	cfg := config.MustLoad(*configFile)
	cli.LogConfigSummary(cfg)

	server := rest.MustNewServer(cfg.RestConf)
	defer server.Stop()

	ctx := svc.NewServiceContext(*cfg)
	handler.RegisterHandlers(server, ctx)

	ctx.Start()
	defer ctx.Stop()

	fmt.Printf("Starting server at %s:%d...\n", cfg.Host, cfg.Port)
	server.Start()
}
