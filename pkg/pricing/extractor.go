// Package pricing extracts the order total from a confirmation page.
// Extraction is best effort; a page where no strategy matches yields an
// empty price, never an error.
package pricing

import (
	"context"
	"encoding/json"
	"regexp"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/orderlab-dev/checkout-runner/pkg/browser"
)

// priceRe matches a yen amount with thousands separators, e.g. 3,500円.
var priceRe = regexp.MustCompile(`[0-9]{1,3}(?:,[0-9]{3})*円`)

// totalRe matches the total label followed by an amount anywhere in flowed
// page text.
var totalRe = regexp.MustCompile(`合計\s*([0-9]{1,3}(?:,[0-9]{3})*円)`)

// totalRowSelector addresses the usual summary-row markup of the checkout
// confirmation pages.
const totalRowSelector = `.total-row, .order-total, [class*="total"]`

// leafScanScript collects every text leaf together with the text of its
// enclosing block, so amounts can be matched against a nearby 合計 label
// even when label and value live in sibling nodes.
const leafScanScript = `(() => {
	const out = [];
	const walker = document.createTreeWalker(document.body, NodeFilter.SHOW_TEXT);
	while (walker.nextNode()) {
		const node = walker.currentNode;
		const text = node.textContent.trim();
		if (!text) continue;
		let block = node.parentElement;
		while (block && block.parentElement && getComputedStyle(block).display === "inline") {
			block = block.parentElement;
		}
		out.push({text: text, block: block ? block.innerText : text});
	}
	return JSON.stringify(out);
})()`

const probeTimeout = 5 * time.Second

// Extract pulls the displayed order total off the current page. It tries a
// known total-row region first, then a labelled leaf-node scan, then a
// whole-page regex. Every probe failure is swallowed; the zero value means
// no total was found.
func Extract(ctx context.Context, session browser.Session, log logrus.FieldLogger) string {
	if price := fromTotalRows(ctx, session); price != "" {
		log.WithField("price", price).Debug("Price extracted from total row")
		return price
	}
	if price := fromLeafScan(ctx, session, log); price != "" {
		log.WithField("price", price).Debug("Price extracted from leaf scan")
		return price
	}
	if price := fromPageText(ctx, session); price != "" {
		log.WithField("price", price).Debug("Price extracted from page text")
		return price
	}
	log.Debug("No price found on page")
	return ""
}

func fromTotalRows(ctx context.Context, session browser.Session) string {
	texts, err := session.Texts(ctx, totalRowSelector, probeTimeout)
	if err != nil {
		return ""
	}
	for _, text := range texts {
		if !strings.Contains(text, "合計") {
			continue
		}
		if m := priceRe.FindString(text); m != "" {
			return m
		}
	}
	return ""
}

func fromLeafScan(ctx context.Context, session browser.Session, log logrus.FieldLogger) string {
	raw, err := session.Evaluate(ctx, leafScanScript, probeTimeout)
	if err != nil || raw == "" {
		return ""
	}

	var leaves []struct {
		Text  string `json:"text"`
		Block string `json:"block"`
	}
	if err := json.Unmarshal([]byte(raw), &leaves); err != nil {
		log.WithError(err).Debug("Leaf scan returned unparseable payload")
		return ""
	}

	for _, leaf := range leaves {
		if !strings.Contains(leaf.Block, "合計") {
			continue
		}
		if m := priceRe.FindString(leaf.Text); m != "" {
			return m
		}
	}
	return ""
}

func fromPageText(ctx context.Context, session browser.Session) string {
	text, err := session.PageText(ctx)
	if err != nil {
		return ""
	}
	if m := totalRe.FindStringSubmatch(text); m != nil {
		return m[1]
	}
	return ""
}
