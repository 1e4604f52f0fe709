package app

import (
	"time"

	"go.uber.org/fx"

	"github.com/faceflowai/ledger/internal/app/api/server"
	"github.com/faceflowai/ledger/internal/app/service/checkout"
	"github.com/faceflowai/ledger/internal/app/service/eventlog"
	"github.com/faceflowai/ledger/internal/app/service/ledger"
	"github.com/faceflowai/ledger/internal/app/service/paymentevent"
	"github.com/faceflowai/ledger/internal/app/service/statistics"
	"github.com/faceflowai/ledger/internal/platform/db"
	"github.com/faceflowai/ledger/internal/platform/stripepay"
	"github.com/faceflowai/ledger/pkg/config"
	"github.com/faceflowai/ledger/pkg/logger"
)

const (
	DefaultStartTimeout = 15 * time.Second
	DefaultStopTimeout  = 10 * time.Second
)

var Module = fx.Options(
	logger.Module,
	config.Module,
	db.Module,
	stripepay.Module,
	server.Module,
	ledger.Module,
	checkout.Module,
	eventlog.Module,
	paymentevent.Module,
	statistics.Module,
)
