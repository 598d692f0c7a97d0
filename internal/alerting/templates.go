package alerting

import (
	"fmt"
	"strings"
	"text/template"

	"github.com/jlaster/fund-monitor/internal/models"
)

var snapshotTmpl = template.Must(template.New("snapshot").Parse(`Fund snapshot for {{or .ETFTicker "EBI"}}:

  Exchange:           {{or .Exchange "-"}}
  CUSIP:              {{or .CUSIP "-"}}
  Net assets:         {{or .NetAssets "-"}}
  Shares outstanding: {{or .SharesOutstanding "-"}}
  NAV:                {{or .NAV "-"}}
  Market price:       {{or .MarketPrice "-"}}
  Premium/discount:   {{or .PremiumDiscount "-"}}
  Median 30d spread:  {{or .Median30DaySpread "-"}}
  Gross expense:      {{or .GrossExpenseRatio "-"}}
  Net expense:        {{or .NetExpenseRatio "-"}}
`))

var premiumDiscountTmpl = template.Must(template.New("premiumDiscount").Parse(`The premium/discount for {{or .Snapshot.ETFTicker "EBI"}} is {{.Snapshot.PremiumDiscount}}, below the {{.Threshold}} threshold.

{{.SnapshotBlock}}`))

var netAssetsTmpl = template.Must(template.New("netAssets").Parse(`Net assets for {{or .Snapshot.ETFTicker "EBI"}} are {{.Snapshot.NetAssets}}, below the {{.Threshold}} floor.

{{.SnapshotBlock}}`))

var underperformanceTmpl = template.Must(template.New("underperformance").Parse(`{{.Primary}} is underperforming:
{{range .Lines}}
  {{.}}{{end}}

Threshold: {{.Threshold}} percentage points since {{.StartDate}}.
`))

var unavailableTmpl = template.Must(template.New("unavailable").Parse(`Fund details could not be retrieved.

Error: {{.Error}}
{{if .Raw}}
Raw agent output:

{{.Raw}}
{{end}}`))

func renderSnapshotBlock(snapshot *models.FundSnapshot) string {
	var sb strings.Builder
	if err := snapshotTmpl.Execute(&sb, snapshot); err != nil {
		return fmt.Sprintf("(failed to render snapshot: %v)", err)
	}
	return sb.String()
}

func render(tmpl *template.Template, data interface{}) string {
	var sb strings.Builder
	if err := tmpl.Execute(&sb, data); err != nil {
		return fmt.Sprintf("(failed to render %s email: %v)", tmpl.Name(), err)
	}
	return sb.String()
}
