package workflow

import (
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"
)

// LedgerEngine is the posting engine for the balance ledger. It is
// constructed once in main and handed to the handler layer; nothing in this
// package keeps global state of its own.
type LedgerEngine struct {
	db     *gorm.DB
	logger *logrus.Logger
	tracer trace.Tracer
}

func NewLedgerEngine(db *gorm.DB, logger *logrus.Logger) *LedgerEngine {
	return &LedgerEngine{
		db:     db,
		logger: logger,
		tracer: otel.Tracer("bitbucket.org/mmdatafocus/pos_backend/workflow"),
	}
}
