// Package stream provides DynamoDB Streams handlers for the edutrack tables.
package stream

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/aws/aws-lambda-go/events"

	"github.com/alvinp540/edutrack/school"
	"github.com/alvinp540/edutrack/store"
)

// Handler repairs results written outside edutrack whose stored grade does
// not match their score.
type Handler struct {
	backend store.Backend
	table   string
	logger  *slog.Logger
}

// NewHandler creates a new stream handler. table is the physical name of the
// results table; records from other tables are ignored. An empty table
// accepts records from any source.
func NewHandler(b store.Backend, table string, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		backend: b,
		table:   table,
		logger:  logger,
	}
}

// HandleGradeSync processes DynamoDB stream events from the results table.
// This function is designed to be used as an AWS Lambda handler.
//
// The corrective write produces a MODIFY event of its own, which is then
// consistent and ignored.
func (h *Handler) HandleGradeSync(ctx context.Context, event events.DynamoDBEvent) error {
	for _, record := range event.Records {
		if err := h.processRecord(ctx, record); err != nil {
			h.logger.Error("failed to process record",
				"eventID", record.EventID,
				"error", err,
			)
			return err // Will retry, eventually DLQ
		}
	}
	return nil
}

// processRecord processes a single DynamoDB stream record.
func (h *Handler) processRecord(ctx context.Context, record events.DynamoDBEventRecord) error {
	if record.EventName != string(events.DynamoDBOperationTypeInsert) &&
		record.EventName != string(events.DynamoDBOperationTypeModify) {
		return nil
	}
	if !h.fromResultsTable(record.EventSourceArn) {
		return nil
	}

	image := record.Change.NewImage
	id := getStringAttr(image, store.FieldID)
	if id == "" {
		id = getStringAttr(record.Change.Keys, store.FieldID)
	}
	score, ok := getNumberAttr(image, "score")
	if id == "" || !ok {
		h.logger.Debug("skipping record without id or numeric score", "eventID", record.EventID)
		return nil
	}

	stored := getStringAttr(image, "grade")
	want := school.GradeOf(score)
	if stored == string(want) {
		return nil
	}

	n, err := h.backend.UpdateOne(ctx, store.Results, store.ByID(id), store.Document{"grade": string(want)})
	if err != nil {
		return fmt.Errorf("update grade of result %s: %w", id, err)
	}
	if n == 0 {
		// Deleted since the event was written.
		h.logger.Warn("result no longer exists", "id", id)
		return nil
	}

	h.logger.Info("grade corrected",
		"id", id,
		"score", score,
		"from", stored,
		"to", want,
	)
	return nil
}

// fromResultsTable reports whether arn names the configured results table.
// Stream ARNs look like arn:aws:dynamodb:<region>:<account>:table/<name>/stream/<label>.
func (h *Handler) fromResultsTable(arn string) bool {
	if h.table == "" || arn == "" {
		return true
	}
	_, rest, ok := strings.Cut(arn, ":table/")
	if !ok {
		return false
	}
	name, _, _ := strings.Cut(rest, "/")
	return name == h.table
}

// getStringAttr extracts a string attribute from a DynamoDB stream image.
func getStringAttr(image map[string]events.DynamoDBAttributeValue, key string) string {
	if v, ok := image[key]; ok && v.DataType() == events.DataTypeString {
		return v.String()
	}
	return ""
}

// getNumberAttr extracts a number attribute from a DynamoDB stream image.
func getNumberAttr(image map[string]events.DynamoDBAttributeValue, key string) (float64, bool) {
	if v, ok := image[key]; ok && v.DataType() == events.DataTypeNumber {
		f, err := strconv.ParseFloat(v.Number(), 64)
		if err != nil {
			return 0, false
		}
		return f, true
	}
	return 0, false
}
