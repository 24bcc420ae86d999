package http

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/meridian-erp/meridian-erp/internal/ledger/reports"
)

const (
	csvFlushEvery = 200
	csvBufferSize = 32 * 1024
)

type csvStreamer struct {
	buf          *bufio.Writer
	csv          *csv.Writer
	flushEvery   int
	pendingLines int
}

func newCSVStreamer(w io.Writer) *csvStreamer {
	buf := bufio.NewWriterSize(w, csvBufferSize)
	writer := csv.NewWriter(buf)
	writer.UseCRLF = true
	return &csvStreamer{buf: buf, csv: writer, flushEvery: csvFlushEvery}
}

func (s *csvStreamer) writeComment(line string) error {
	if s == nil || s.buf == nil {
		return fmt.Errorf("csv streamer not initialised")
	}
	if !strings.HasSuffix(line, "\r\n") {
		line = strings.TrimSuffix(line, "\n")
		line += "\r\n"
	}
	_, err := s.buf.WriteString(line)
	return err
}

func (s *csvStreamer) writeRow(row []string) error {
	if s == nil || s.csv == nil {
		return fmt.Errorf("csv streamer not initialised")
	}
	if err := s.csv.Write(row); err != nil {
		return err
	}
	s.pendingLines++
	if s.flushEvery > 0 && s.pendingLines >= s.flushEvery {
		return s.Flush()
	}
	return nil
}

func (s *csvStreamer) Flush() error {
	if s == nil || s.csv == nil || s.buf == nil {
		return fmt.Errorf("csv streamer not initialised")
	}
	s.csv.Flush()
	if err := s.csv.Error(); err != nil {
		return err
	}
	if err := s.buf.Flush(); err != nil {
		return err
	}
	s.pendingLines = 0
	return nil
}

func writeAccountLedgerCSV(w io.Writer, report reports.AccountLedger) error {
	streamer := newCSVStreamer(w)
	if err := streamer.writeComment(fmt.Sprintf("# Report: Account Ledger %s %s", report.Account.Code, report.Account.Name)); err != nil {
		return err
	}
	if err := streamer.writeComment(fmt.Sprintf("# Range: %s .. %s | Opening: %s",
		report.From.Format(dateLayout), report.To.Format(dateLayout), report.Opening.StringFixed(2))); err != nil {
		return err
	}
	if err := streamer.writeRow([]string{"Date", "Entry", "Description", "Memo", "Debit", "Credit", "Balance"}); err != nil {
		return err
	}
	for _, row := range report.Rows {
		if err := streamer.writeRow([]string{
			row.Date.Format(dateLayout),
			row.Number,
			row.Description,
			row.Memo,
			row.Debit.StringFixed(2),
			row.Credit.StringFixed(2),
			row.Balance.StringFixed(2),
		}); err != nil {
			return err
		}
	}
	if err := streamer.writeRow([]string{"", "", "Closing Balance", "", "", "", report.Closing.StringFixed(2)}); err != nil {
		return err
	}
	return streamer.Flush()
}

func writeTrialBalanceCSV(w io.Writer, report reports.TrialBalance) error {
	streamer := newCSVStreamer(w)
	if err := streamer.writeComment(fmt.Sprintf("# Report: Trial Balance as of %s", report.AsOf.Format(dateLayout))); err != nil {
		return err
	}
	if err := streamer.writeRow([]string{"Account Code", "Account Name", "Type", "Debit", "Credit"}); err != nil {
		return err
	}
	for _, row := range report.Rows {
		if err := streamer.writeRow([]string{
			row.AccountCode,
			row.AccountName,
			string(row.AccountType),
			row.Debit.StringFixed(2),
			row.Credit.StringFixed(2),
		}); err != nil {
			return err
		}
	}
	if err := streamer.writeRow([]string{"Totals", "", "", report.TotalDebit.StringFixed(2), report.TotalCredit.StringFixed(2)}); err != nil {
		return err
	}
	return streamer.Flush()
}
