package collector

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/http/cookiejar"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"golang.org/x/net/html"

	"SwingScreener/internal/model"
)

const (
	nseHomeURL   = "https://www.nseindia.com/"
	browserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
	wikiAgent    = "SwingScreenerBot/1.0"
)

// ErrUnknownMarket is returned for a market key that has no definition.
var ErrUnknownMarket = errors.New("unknown market")

type marketDef struct {
	name string
	url  string
	us   bool

	// NSE index CSV
	fallback string // file under the data dir
	minRows  int    // fewer rows than this means a broken download

	// Wikipedia constituents table
	symbolCols []string
	nameCols   []string
	sectorCols []string
}

func nseIndexURL(n int) string {
	return fmt.Sprintf("https://archives.nseindia.com/content/indices/ind_nifty%dlist.csv", n)
}

var markets = map[string]marketDef{
	"nifty_50":  {name: "Nifty 50", url: nseIndexURL(50), fallback: "nifty50_fallback.csv", minRows: 45},
	"nifty_100": {name: "Nifty 100", url: nseIndexURL(100), fallback: "nifty100_fallback.csv", minRows: 90},
	"nifty_200": {name: "Nifty 200", url: nseIndexURL(200), fallback: "nifty200_fallback.csv", minRows: 180},
	"nifty_500": {name: "Nifty 500", url: nseIndexURL(500), fallback: "nifty500_fallback.csv", minRows: 400},
	"sp_500": {
		name: "S&P 500", url: "https://en.wikipedia.org/wiki/List_of_S%26P_500_companies", us: true,
		symbolCols: []string{"Symbol", "Ticker symbol", "Ticker"},
		nameCols:   []string{"Security", "Company"},
		sectorCols: []string{"GICS Sector", "Sector", "Industry"},
	},
	"dow_30": {
		name: "Dow Jones 30", url: "https://en.wikipedia.org/wiki/Dow_Jones_Industrial_Average", us: true,
		symbolCols: []string{"Symbol"},
		nameCols:   []string{"Company", "Security"},
		sectorCols: []string{"Industry", "Sector", "GICS Sector"},
	},
	"nasdaq_100": {
		name: "Nasdaq 100", url: "https://en.wikipedia.org/wiki/Nasdaq-100", us: true,
		symbolCols: []string{"Ticker", "Symbol"},
		nameCols:   []string{"Company", "Security"},
		sectorCols: []string{"GICS Sector", "Sector", "Industry"},
	},
}

// Markets returns the supported market keys, sorted.
func Markets() []string {
	keys := make([]string, 0, len(markets))
	for k := range markets {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// KnownMarket reports whether market is a supported key.
func KnownMarket(market string) bool {
	_, ok := markets[market]
	return ok
}

// IsUSMarket reports whether market lists US-dollar instruments.
func IsUSMarket(market string) bool {
	return markets[market].us
}

// MarketName returns the display name of a market, or the key itself.
func MarketName(market string) string {
	if def, ok := markets[market]; ok {
		return def.name
	}
	return market
}

// UniverseLoader resolves a market key to its constituent instruments.
type UniverseLoader struct {
	Client  *http.Client
	DataDir string
	// URLs overrides the source URL per market key.
	URLs map[string]string
	// NSEHome is requested before an index CSV to obtain session cookies. Empty skips it.
	NSEHome string
}

// NewUniverseLoader creates a loader that keeps fallback CSVs in dataDir.
func NewUniverseLoader(dataDir, proxyURL string) *UniverseLoader {
	client := newHTTPClient(proxyURL, 30*time.Second)
	if jar, err := cookiejar.New(nil); err == nil {
		client.Jar = jar
	}
	return &UniverseLoader{Client: client, DataDir: dataDir, NSEHome: nseHomeURL}
}

// Load returns the instruments of market.
func (u *UniverseLoader) Load(ctx context.Context, market string) ([]model.Instrument, error) {
	def, ok := markets[market]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownMarket, market)
	}
	src := def.url
	if v, ok := u.URLs[market]; ok {
		src = v
	}
	if def.us {
		return u.loadWikipedia(ctx, def, src)
	}
	return u.loadNSE(ctx, def, src)
}

func (u *UniverseLoader) get(ctx context.Context, url string, header map[string]string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	for k, v := range header {
		req.Header.Set(k, v)
	}
	resp, err := u.Client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("GET %s: status %d", url, resp.StatusCode)
	}
	return body, nil
}

// loadNSE downloads an index CSV, saving it as the fallback when complete, and
// reads the fallback when the download fails or looks truncated.
func (u *UniverseLoader) loadNSE(ctx context.Context, def marketDef, src string) ([]model.Instrument, error) {
	header := map[string]string{
		"User-Agent": browserAgent,
		"Accept":     "text/csv,text/plain,*/*",
		"Referer":    nseHomeURL,
	}
	fallback := filepath.Join(u.DataDir, def.fallback)

	if u.NSEHome != "" {
		if _, err := u.get(ctx, u.NSEHome, header); err != nil {
			log.Printf("[WARN] NSE home request failed: %v", err)
		}
	}

	body, err := u.get(ctx, src, header)
	if err != nil {
		log.Printf("[WARN] download %s list failed: %v", def.name, err)
	} else {
		insts, perr := parseNSECSV(body)
		if perr == nil && len(insts) >= def.minRows {
			if err := saveFallback(fallback, body); err != nil {
				log.Printf("[WARN] save fallback %s: %v", fallback, err)
			}
			log.Printf("[INFO] loaded %d stocks for %s from NSE", len(insts), def.name)
			return insts, nil
		}
		log.Printf("[WARN] %s CSV had %d stocks (expected >= %d), using fallback", def.name, len(insts), def.minRows)
	}

	data, err := os.ReadFile(fallback)
	if err != nil {
		return nil, fmt.Errorf("load %s fallback: %w", def.name, err)
	}
	log.Printf("[INFO] loading %s from fallback CSV %s", def.name, filepath.Base(fallback))
	return parseNSECSV(data)
}

func saveFallback(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// parseNSECSV reads the NSE constituent CSV: Company Name, Industry, Symbol, Series, ISIN Code.
func parseNSECSV(data []byte) ([]model.Instrument, error) {
	r := csv.NewReader(bytes.NewReader(bytes.TrimPrefix(data, []byte("\ufeff"))))
	r.FieldsPerRecord = -1
	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse csv: %w", err)
	}
	if len(rows) == 0 {
		return nil, nil
	}

	col := columnIndex(rows[0])
	symIdx, ok := col["Symbol"]
	if !ok {
		return nil, fmt.Errorf("parse csv: no Symbol column in %v", rows[0])
	}

	var insts []model.Instrument
	for _, row := range rows[1:] {
		sym := cell(row, symIdx)
		if sym == "" {
			continue
		}
		insts = append(insts, model.Instrument{
			Symbol:   sym,
			Company:  cellByName(row, col, "Company Name"),
			Industry: cellByName(row, col, "Industry"),
			Ticker:   sym + ".NS",
		})
	}
	return insts, nil
}

func (u *UniverseLoader) loadWikipedia(ctx context.Context, def marketDef, src string) ([]model.Instrument, error) {
	body, err := u.get(ctx, src, map[string]string{"User-Agent": wikiAgent})
	if err != nil {
		return nil, fmt.Errorf("fetch %s list: %w", def.name, err)
	}
	tables, err := parseHTMLTables(body)
	if err != nil {
		return nil, fmt.Errorf("parse %s page: %w", def.name, err)
	}

	for _, t := range tables {
		if len(t) == 0 {
			continue
		}
		col := columnIndex(t[0])
		symIdx, okSym := firstColumn(col, def.symbolCols)
		nameIdx, okName := firstColumn(col, def.nameCols)
		if !okSym || !okName {
			continue
		}
		sectorIdx, okSector := firstColumn(col, def.sectorCols)

		var insts []model.Instrument
		for _, row := range t[1:] {
			sym := strings.ReplaceAll(cell(row, symIdx), ".", "-")
			if sym == "" {
				continue
			}
			inst := model.Instrument{Symbol: sym, Company: cell(row, nameIdx), Ticker: sym}
			if okSector {
				inst.Industry = cell(row, sectorIdx)
			}
			insts = append(insts, inst)
		}
		log.Printf("[INFO] loaded %d %s stocks from Wikipedia", len(insts), def.name)
		return insts, nil
	}
	return nil, fmt.Errorf("%s: no constituents table found", def.name)
}

func columnIndex(header []string) map[string]int {
	idx := make(map[string]int, len(header))
	for i, h := range header {
		idx[strings.TrimSpace(h)] = i
	}
	return idx
}

func firstColumn(col map[string]int, names []string) (int, bool) {
	for _, n := range names {
		if i, ok := col[n]; ok {
			return i, true
		}
	}
	return 0, false
}

func cell(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

func cellByName(row []string, col map[string]int, name string) string {
	i, ok := col[name]
	if !ok {
		return ""
	}
	return cell(row, i)
}

// parseHTMLTables returns the text of every <table> as rows of cells.
// Footnote markers (<sup>) are dropped.
func parseHTMLTables(data []byte) ([][][]string, error) {
	doc, err := html.Parse(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}

	var tables [][][]string
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "table" {
			tables = append(tables, tableRows(n))
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return tables, nil
}

func tableRows(table *html.Node) [][]string {
	var rows [][]string
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "table":
				if n != table {
					return // nested table
				}
			case "tr":
				var cells []string
				for c := n.FirstChild; c != nil; c = c.NextSibling {
					if c.Type == html.ElementNode && (c.Data == "td" || c.Data == "th") {
						cells = append(cells, nodeText(c))
					}
				}
				rows = append(rows, cells)
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(table)
	return rows
}

func nodeText(n *html.Node) string {
	var sb strings.Builder
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && (n.Data == "sup" || n.Data == "style") {
			return
		}
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return strings.Join(strings.Fields(sb.String()), " ")
}
