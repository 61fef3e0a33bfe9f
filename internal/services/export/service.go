// Package export renders admin reporting workbooks. Each export is a
// point-in-time snapshot rendered straight from the store; nothing here
// mutates state.
package export

import (
	"bytes"
	"fmt"

	"catalyst/internal/repositories"

	"github.com/xuri/excelize/v2"
)

type Service interface {
	// Recommendations renders every recommendation ever made.
	Recommendations() (*bytes.Buffer, error)
	// Grants renders the full pending-grant pipeline.
	Grants() (*bytes.Buffer, error)
	// ReturnHistory renders distributions with one row per contributor
	// slice, optionally filtered to one campaign.
	ReturnHistory(campaignID *uint) (*bytes.Buffer, error)
	// Ledger renders the full balance change log.
	Ledger() (*bytes.Buffer, error)
}

type service struct {
	store repositories.DataStore
}

func NewService(store repositories.DataStore) Service {
	if store == nil {
		panic("store is required")
	}
	return &service{store: store}
}

const dateLayout = "2006-01-02 15:04:05"

func (s *service) Recommendations() (*bytes.Buffer, error) {
	recs, err := s.store.AllRecommendations()
	if err != nil {
		return nil, err
	}
	rows := make([][]interface{}, 0, len(recs))
	for _, r := range recs {
		var grantID interface{}
		if r.PendingGrantID != nil {
			grantID = *r.PendingGrantID
		}
		rows = append(rows, []interface{}{
			r.ID, r.UserEmail, r.UserFullName, r.CampaignID,
			r.Amount.StringFixed(2), string(r.Status), grantID,
			r.RejectionMemo, r.CreatedAt.Format(dateLayout),
		})
	}
	return workbook("Recommendations", []interface{}{
		"ID", "Email", "Full Name", "Campaign ID", "Amount", "Status",
		"Grant ID", "Rejection Memo", "Created",
	}, rows)
}

func (s *service) Grants() (*bytes.Buffer, error) {
	grants, err := s.store.AllGrants()
	if err != nil {
		return nil, err
	}
	rows := make([][]interface{}, 0, len(grants))
	for _, g := range grants {
		var campaignID interface{}
		if g.CampaignID != nil {
			campaignID = *g.CampaignID
		}
		rows = append(rows, []interface{}{
			g.ID, g.UserID, g.Amount.StringFixed(2),
			g.AmountAfterFees.StringFixed(2), g.InvestedSum.StringFixed(2),
			g.DAFProvider, g.DAFName, campaignID, string(g.Status),
			g.Reference, g.CreatedAt.Format(dateLayout),
		})
	}
	return workbook("Pending Grants", []interface{}{
		"ID", "User ID", "Pledged", "After Fees", "Invested Sum",
		"DAF Provider", "DAF Name", "Campaign ID", "Status", "Reference",
		"Created",
	}, rows)
}

func (s *service) ReturnHistory(campaignID *uint) (*bytes.Buffer, error) {
	masters, _, err := s.store.ListReturnHistory(campaignID, 1000, 0)
	if err != nil {
		return nil, err
	}
	var rows [][]interface{}
	for _, m := range masters {
		for _, d := range m.Details {
			rows = append(rows, []interface{}{
				m.ID, m.CampaignID, m.ReturnAmount.StringFixed(2),
				m.PostDate.Format(dateLayout), d.UserID,
				d.InvestmentAmount.StringFixed(2),
				d.PercentageOfTotalInvestment.StringFixed(2),
				d.ReturnAmount.StringFixed(2), m.MemoNote,
			})
		}
	}
	return workbook("Returns", []interface{}{
		"Distribution ID", "Campaign ID", "Gross Return", "Post Date",
		"User ID", "Invested", "Share %", "Payout", "Memo",
	}, rows)
}

func (s *service) Ledger() (*bytes.Buffer, error) {
	entries, err := s.store.AllLedgerEntries()
	if err != nil {
		return nil, err
	}
	rows := make([][]interface{}, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, []interface{}{
			e.ID, e.UserID, e.Username,
			e.OldValue.StringFixed(2), e.NewValue.StringFixed(2),
			e.Delta().StringFixed(2), e.PaymentType,
			groupOrBlank(e.GroupID), e.InvestmentName, e.Reference,
			e.ChangeDate.Format(dateLayout),
		})
	}
	return workbook("Balance Changes", []interface{}{
		"ID", "User ID", "Username", "Old Value", "New Value", "Delta",
		"Reason", "Group ID", "Investment", "Reference", "Date",
	}, rows)
}

func groupOrBlank(id *uint) interface{} {
	if id == nil {
		return ""
	}
	return *id
}

// workbook builds a single-sheet xlsx with a bold frozen header row.
func workbook(sheet string, header []interface{}, rows [][]interface{}) (*bytes.Buffer, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return nil, err
	}
	headerStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, err
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return nil, err
	}
	lastCol, err := excelize.CoordinatesToCellName(len(header), 1)
	if err != nil {
		return nil, err
	}
	if err := f.SetCellStyle(sheet, "A1", lastCol, headerStyle); err != nil {
		return nil, err
	}
	if err := f.SetPanes(sheet, &excelize.Panes{
		Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft",
	}); err != nil {
		return nil, err
	}

	for i, row := range rows {
		cell := fmt.Sprintf("A%d", i+2)
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return nil, err
		}
	}
	return f.WriteToBuffer()
}
