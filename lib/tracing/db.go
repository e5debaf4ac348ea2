package tracing

import (
	"strings"

	"github.com/jinzhu/gorm"
	"gopkg.in/DataDog/dd-trace-go.v1/ddtrace/ext"
	"gopkg.in/DataDog/dd-trace-go.v1/ddtrace/tracer"

	"github.com/mitchfriedman/soirees/lib/logging"
)

const (
	parentSpanGormKey = "tracingParentSpan"
	spanGormKey       = "tracingSpan"
)

// gormHook ties one gorm processor to the SQL verb its queries report.
type gormHook struct {
	name      string
	verb      string
	processor func(*gorm.DB) *gorm.CallbackProcessor
}

var gormHooks = []gormHook{
	{"create", "INSERT", func(db *gorm.DB) *gorm.CallbackProcessor { return db.Callback().Create() }},
	{"query", "SELECT", func(db *gorm.DB) *gorm.CallbackProcessor { return db.Callback().Query() }},
	{"update", "UPDATE", func(db *gorm.DB) *gorm.CallbackProcessor { return db.Callback().Update() }},
	{"delete", "DELETE", func(db *gorm.DB) *gorm.CallbackProcessor { return db.Callback().Delete() }},
	{"row_query", "", func(db *gorm.DB) *gorm.CallbackProcessor { return db.Callback().RowQuery() }},
}

// AddGormCallbacks traces every statement run through db. Statements are
// only traced when the gorm.DB was returned by NewDBSpan, which carries the
// parent span.
func AddGormCallbacks(db *gorm.DB, logger logging.StructuredLogger) {
	for _, h := range gormHooks {
		h := h
		// each registration needs its own processor; gorm keeps the pointer.
		h.processor(db).Before("gorm:"+h.name).Register("tracing:"+h.name+"_before", func(scope *gorm.Scope) {
			startQuerySpan(scope, logger)
		})
		h.processor(db).After("gorm:"+h.name).Register("tracing:"+h.name+"_after", func(scope *gorm.Scope) {
			finishQuerySpan(scope, h.verb)
		})
	}
}

func startQuerySpan(scope *gorm.Scope, logger logging.StructuredLogger) {
	val, ok := scope.Get(parentSpanGormKey)
	if !ok {
		logger.Debugf("untraced query on %s", scope.TableName())
		return
	}

	parent := val.(Span)
	sp := tracer.StartSpan(parent.operationName,
		tracer.ChildOf(parent.span.Context()),
		tracer.SpanType(ext.SpanTypeSQL),
		tracer.ResourceName(scope.TableName()),
	)
	scope.Set(spanGormKey, Span{span: sp, operationName: parent.operationName})
}

func finishQuerySpan(scope *gorm.Scope, verb string) {
	val, ok := scope.Get(spanGormKey)
	if !ok {
		return
	}

	sp := val.(Span)
	if verb == "" {
		verb = strings.ToUpper(strings.SplitN(strings.TrimSpace(scope.SQL), " ", 2)[0])
	}
	sp.SetTag(ext.DBStatement, scope.SQL)
	sp.SetTag("db.table", scope.TableName())
	sp.SetTag("db.method", verb)
	sp.SetTag("db.rows", scope.DB().RowsAffected)
	if !gorm.IsRecordNotFoundError(scope.DB().Error) {
		sp.RecordError(scope.DB().Error)
	}
	sp.Finish()
}
