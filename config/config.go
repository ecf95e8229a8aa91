package config

import (
	"flag"
	"net"
	"strconv"
	"strings"
)

type Config struct {
	Addr  string
	DBUrl string
	Debug bool
}

func ParseFlags() (cfg Config, err error) {
	var host string
	flag.StringVar(&host, "host", "0.0.0.0", "listen host name (default 0.0.0.0)")
	var port uint
	flag.UintVar(&port, "port", 8080, "listen port number (default 8080)")
	flag.StringVar(&cfg.DBUrl, "db-url", "surveyforge.sqlite", "path to SQLite3 DB file (default surveyforge.sqlite)")
	flag.BoolVar(&cfg.Debug, "debug", false, "log at DEBUG level")
	flag.Parse()

	cfg.Addr = net.JoinHostPort(host, strconv.Itoa(int(port)))
	return
}

func (cfg Config) Url() (url string) {
	url = cfg.Addr
	if strings.HasPrefix(url, "0.0.0.0") {
		url = "localhost" + strings.TrimPrefix(url, "0.0.0.0")
	}
	url = "http://" + url
	return
}
