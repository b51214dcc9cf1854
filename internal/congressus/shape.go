package congressus

import (
	"strconv"
)

// Response shaping: every raw upstream record is reduced to an explicit
// allowlist of fields before it leaves this package. Shaping is pure and
// never fails; malformed structures produce a best-effort partial result.
//
// v20 and v30 expose different field sets for members and products, so each
// has its own allowlist. The facades pick one; the two are never merged.

// DefaultSentinel is filled in for allowlisted fields missing from the
// source record, unless the caller asked for nil instead.
const DefaultSentinel = "error"

var memberKeysV30 = []string{
	"id",            // internal congressus id
	"username",      // username (student number)
	"first_name",    // first name(s)
	"last_name",     // last name(s)
	"prefix",        // name prefix (e.g. "Prof. dr.")
	"suffix",        // name suffix (e.g. "MSc.")
	"date_of_birth", // for 18+ checking
	"show_almanac",  // whether this user shows their info on the website
	"status",        // current membership status
	"bank_account",  // banking information for sdd mandate
}

var memberKeysV20 = []string{
	"date_of_birth",
	"first_name",
	"has_sdd_mandate",
	"id",
	"primary_last_name_main",
	"primary_last_name_prefix",
	"profile_picture",
	"show_almanac",
	"status",
	"status_id",
	"username",
}

var productKeysV30 = []string{
	"id",
	"product_offer_id", // id for the product offer (variant)
	"name",
	"description",
	"published",
	"price", // price in whole euros
	"media",
}

var productKeysV20 = []string{
	"description",
	"folder",
	"folder_breadcrumbs",
	"folder_id",
	"id",
	"media",
	"name",
	"offers",
	"published",
	"url",
}

var saleKeysV30 = []string{
	"id",             // invoice id
	"member_id",      // member this invoice belongs to
	"items",          // invoice lines
	"price_paid",     // paid amount in euros
	"price_unpaid",   // unpaid amount in euros
	"invoice_date",   // date the invoice was issued
	"invoice_source", // usually "api"
	"invoice_status",
	"invoice_type", // usually "webshop"
	"created",
	"modified",
}

var saleKeysV20 = []string{
	"cancelled",
	"created",
	"items",
	"status",
	"id",
	"user_id",
}

// extractKeys copies the allowlisted keys from src into a fresh map. Keys
// absent from src get def. A nil src yields a map with every key set to def.
func extractKeys(src map[string]any, keys []string, def any) map[string]any {
	out := make(map[string]any, len(keys))
	for _, key := range keys {
		if v, ok := src[key]; ok {
			out[key] = v
		} else {
			out[key] = def
		}
	}
	return out
}

// firstMediaURL reduces the upstream media array (a list of media
// descriptor objects) to the URL of its first entry, or nil when the array
// is empty or not an array.
func firstMediaURL(media any) any {
	list, ok := media.([]any)
	if !ok || len(list) == 0 {
		return nil
	}
	entry, ok := list[0].(map[string]any)
	if !ok {
		return nil
	}
	if u, ok := entry["url"]; ok {
		return u
	}
	return nil
}

// toInt parses upstream monetary fields, which arrive as strings holding
// whole currency units. Unparseable values are passed through untouched
// rather than failing the whole record.
func toInt(v any) any {
	switch n := v.(type) {
	case string:
		if i, err := strconv.Atoi(n); err == nil {
			return i
		}
	case float64:
		return int(n)
	case int:
		return n
	}
	return v
}

// StripMemberV30 reduces a raw v30 member record to the public field set.
func StripMemberV30(raw map[string]any) map[string]any {
	return extractKeys(raw, memberKeysV30, DefaultSentinel)
}

// StripMemberV20 reduces a raw v20 member record to the public field set.
func StripMemberV20(raw map[string]any) map[string]any {
	return extractKeys(raw, memberKeysV20, DefaultSentinel)
}

// StripProductV30 reduces a raw v30 product record: allowlist projection,
// media flattened to one URL (nil when absent), price parsed to an integer.
func StripProductV30(raw map[string]any) map[string]any {
	stripped := extractKeys(raw, productKeysV30, nil)
	stripped["media"] = firstMediaURL(stripped["media"])
	if price, ok := stripped["price"]; ok && price != nil {
		stripped["price"] = toInt(price)
	}
	return stripped
}

// StripProductV20 reduces a raw v20 product record: allowlist projection
// with the sentinel for absent fields, media flattened to one URL, each
// offer's price parsed to an integer.
func StripProductV20(raw map[string]any) map[string]any {
	stripped := extractKeys(raw, productKeysV20, DefaultSentinel)
	stripped["media"] = firstMediaURL(stripped["media"])
	if offers, ok := stripped["offers"].([]any); ok {
		for _, o := range offers {
			if offer, ok := o.(map[string]any); ok {
				offer["price"] = toInt(offer["price"])
			}
		}
	}
	return stripped
}

// StripSaleV30 reduces a raw v30 sale invoice to the public field set.
func StripSaleV30(raw map[string]any) map[string]any {
	return extractKeys(raw, saleKeysV30, nil)
}

// StripSaleV20 reduces a raw v20 sale record: allowlist projection with the
// sentinel for absent fields and per-item price and total_price parsed to
// integers.
func StripSaleV20(raw map[string]any) map[string]any {
	stripped := extractKeys(raw, saleKeysV20, DefaultSentinel)
	if items, ok := stripped["items"].([]any); ok {
		for _, it := range items {
			if item, ok := it.(map[string]any); ok {
				item["price"] = toInt(item["price"])
				item["total_price"] = toInt(item["total_price"])
			}
		}
	}
	return stripped
}
