package sheets

import (
	"context"
	"fmt"
	"time"

	"google.golang.org/api/sheets/v4"

	"github.com/jiaming2012/rsa-tracker/src/models"
)

const watchlistSheetName = "Watchlist"

func AppendRows(ctx context.Context, srv *sheets.Service, spreadsheetId string, sheetName string, values [][]interface{}) error {
	row := &sheets.ValueRange{
		Values: values,
	}

	response, err := srv.Spreadsheets.Values.Append(spreadsheetId, sheetName, row).ValueInputOption("USER_ENTERED").InsertDataOption("INSERT_ROWS").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("AppendRows: %w", err)
	}

	if response.HTTPStatusCode != 200 {
		return fmt.Errorf("AppendRows: unexpected status code %d", response.HTTPStatusCode)
	}

	return nil
}

// AppendResolvedEntry records a fully closed-out watchlist entry as a new
// row: ticker, split date, number of accounts traded, and the time the
// last closeout landed.
func AppendResolvedEntry(ctx context.Context, srv *sheets.Service, spreadsheetId string, ticker string, entry *models.WatchlistEntry) error {
	values := [][]interface{}{
		{
			ticker,
			entry.SplitDate,
			len(entry.Purchases),
			time.Now().UTC().Format(time.RFC3339),
		},
	}

	return AppendRows(ctx, srv, spreadsheetId, watchlistSheetName, values)
}
