package app

import (
	"time"

	"go.uber.org/fx"

	"github.com/superstar643/PITCHINVEST-sub001/internal/app/api/server"
	"github.com/superstar643/PITCHINVEST-sub001/internal/app/service/checkout"
	"github.com/superstar643/PITCHINVEST-sub001/internal/app/service/outbox"
	paymentlog "github.com/superstar643/PITCHINVEST-sub001/internal/app/service/payment_log"
	"github.com/superstar643/PITCHINVEST-sub001/internal/app/service/statistics"
	"github.com/superstar643/PITCHINVEST-sub001/internal/app/service/subscription"
	"github.com/superstar643/PITCHINVEST-sub001/internal/platform/db"
	"github.com/superstar643/PITCHINVEST-sub001/internal/platform/redis"
	"github.com/superstar643/PITCHINVEST-sub001/internal/platform/stripe"
	"github.com/superstar643/PITCHINVEST-sub001/pkg/config"
	"github.com/superstar643/PITCHINVEST-sub001/pkg/logger"
	"github.com/superstar643/PITCHINVEST-sub001/pkg/metrics"
)

const (
	DefaultStartTimeout = 15 * time.Second
	DefaultStopTimeout  = 10 * time.Second
)

var Module = fx.Options(
	logger.Module,
	config.Module,
	metrics.Module,
	db.Module,
	redis.Module,
	stripe.Module,
	server.Module,
	subscription.Module,
	statistics.Module,
	paymentlog.Module,
	outbox.Module,
	checkout.Module,
)
