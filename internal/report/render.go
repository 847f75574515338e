package report

import (
	"html/template"
	"strings"
	"time"

	"opsboard/internal/models"
)

// EmptyNotice is the single placeholder row rendered when there is
// nothing to print.
const EmptyNotice = "Tidak ada data untuk dicetak."

// row is one precomputed table row. Formatting happens here rather than
// in the template so it stays testable.
type row struct {
	No          int
	Username    string
	Description string
	Start       photoCell
	InProgress  photoCell
	Completed   photoCell
	Duration    string
	Lateness    string
}

type photoCell struct {
	Photo string
	Time  string
}

type document struct {
	Title      string
	ReportDate string
	Rows       []row
	Empty      bool
	Notice     string
}

var hrdTemplate = template.Must(template.New("hrd").Parse(`<!DOCTYPE html>
<html lang="id">
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<style>
  body { font-family: sans-serif; color: #000; background: #fff; margin: 16px; }
  .watermark { position: fixed; top: 40%; left: 10%; font-size: 64px; color: rgba(0,0,0,0.06); transform: rotate(-30deg); pointer-events: none; }
  header h1 { color: #dc2626; font-size: 20px; margin: 0; }
  header .tagline { color: #2563eb; font-style: italic; font-weight: 600; font-size: 13px; margin: 0; }
  header .line2 { color: #2563eb; font-weight: 600; font-size: 13px; margin: 0; }
  header .address { font-size: 11px; margin-top: 4px; }
  hr { border: none; border-top: 2px solid #000; margin: 8px 0; }
  h2 { text-align: center; text-transform: uppercase; font-size: 16px; }
  .report-date { text-align: center; font-size: 12px; margin-bottom: 12px; }
  table { width: 100%; border-collapse: collapse; }
  th, td { border: 1px solid #000; padding: 4px; font-size: 11px; }
  th { text-align: center; font-weight: bold; }
  td.num, td.ts { text-align: center; }
  td.empty { text-align: center; height: 96px; }
  .photo { width: 50mm; height: 50mm; object-fit: cover; border: 1px solid #000; }
  .lateness { font-weight: bold; display: block; margin-top: 2px; }
  footer { margin-top: 64px; display: flex; justify-content: space-between; }
  .signature-box { height: 72px; }
</style>
</head>
<body>
<div class="watermark">PT FARIKA RIAU PERKASA</div>
<header>
  <h1>PT. FARIKA RIAU PERKASA</h1>
  <p class="tagline">one stop concrete solution</p>
  <p class="line2">READYMIX &amp; PRECAST CONCRETE</p>
  <p class="address">Jl. Soekarno Hatta Komp. SKA No. 62 E Pekanbaru Telp. (0761) 7090228 - 571662</p>
</header>
<hr>
<h2>{{.Title}}</h2>
<p class="report-date">Tanggal Cetak: {{.ReportDate}}</p>
<main>
<table>
<thead>
<tr>
  <th style="width:5%">No</th>
  <th style="width:15%">Nama Karyawan</th>
  <th style="width:30%">Deskripsi Kegiatan</th>
  <th>Mulai</th>
  <th>Proses</th>
  <th>Selesai</th>
  <th>Durasi</th>
</tr>
</thead>
<tbody>
{{- if .Empty}}
<tr><td colspan="7" class="empty">{{.Notice}}</td></tr>
{{- else}}
{{- range .Rows}}
<tr>
  <td class="num">{{.No}}</td>
  <td><strong>{{.Username}}</strong></td>
  <td>{{.Description}}</td>
  <td class="ts">{{if .Start.Photo}}<img class="photo" src="{{.Start.Photo}}" alt="Foto Kegiatan"><br>{{end}}{{.Start.Time}}</td>
  <td class="ts">{{if .InProgress.Photo}}<img class="photo" src="{{.InProgress.Photo}}" alt="Foto Kegiatan"><br>{{end}}{{.InProgress.Time}}</td>
  <td class="ts">{{if .Completed.Photo}}<img class="photo" src="{{.Completed.Photo}}" alt="Foto Kegiatan"><br>{{end}}{{.Completed.Time}}</td>
  <td class="ts">{{.Duration}}{{if .Lateness}}<span class="lateness">{{.Lateness}}</span>{{end}}</td>
</tr>
{{- end}}
{{- end}}
</tbody>
</table>
</main>
<footer>
  <div>
    <p>Mengetahui,</p>
    <div class="signature-box"></div>
    <p>(Pimpinan)</p>
  </div>
  <div>
    <p>Disiapkan oleh,</p>
    <div class="signature-box"></div>
    <p>(HRD Pusat)</p>
  </div>
</footer>
</body>
</html>
`))

// RenderHRD renders the print document for the given logs. Rows come out
// in input order; an empty input yields exactly one placeholder row.
func RenderHRD(logs []models.ActivityLog, title string, now time.Time) (string, error) {
	doc := document{
		Title:      title,
		ReportDate: FormatReportDate(now),
		Notice:     EmptyNotice,
		Empty:      len(logs) == 0,
	}

	for i, a := range logs {
		created := a.CreatedAt
		doc.Rows = append(doc.Rows, row{
			No:          i + 1,
			Username:    a.Username,
			Description: a.Description,
			Start:       photoCell{Photo: a.PhotoInitial, Time: FormatClock(&created)},
			InProgress:  photoCell{Photo: a.PhotoInProgress, Time: FormatClock(a.TimestampInProgress)},
			Completed:   photoCell{Photo: a.PhotoCompleted, Time: FormatClock(a.TimestampCompleted)},
			Duration:    FormatDuration(&created, a.TimestampCompleted),
			Lateness:    Lateness(a.TargetTimestamp, a.TimestampCompleted),
		})
	}

	var sb strings.Builder
	if err := hrdTemplate.Execute(&sb, doc); err != nil {
		return "", err
	}
	return sb.String(), nil
}
