package classify

// Uncategorized is the explicit label for vendors we cannot classify.
// It is deliberately not a concrete spending category, so downstream
// aggregation never misattributes unknown spend.
const Uncategorized = "Uncategorized"

// CategoryOther is the fallback bucket for items no rule matches.
const CategoryOther = "Other"

// vendorCategories maps known vendor names to their coarse category.
var vendorCategories = map[string]string{
	// Electronics stores
	"Saturn":     "Electronics",
	"MediaMarkt": "Electronics",

	// Online retail
	"Amazon": "Hardware",

	// Travel
	"Deutsche Bahn": "Travel",
	"Lufthansa":     "Travel",

	// Grocery stores
	"Rewe": "Groceries",
	"Aldi": "Groceries",

	// Gas stations
	"Shell": "Fuel",
	"Aral":  "Fuel",

	// Furniture
	"IKEA": "Furniture",

	// Restaurants/Bars
	"Pub Express": "Meals",
	"Restaurant":  "Meals",
}

// itemRule is one ordered classification rule: if any keyword appears in the
// item text, the category applies. First matching rule wins.
type itemRule struct {
	keywords []string
	category string
}

var itemRules = []itemRule{
	{[]string{"beer", "wine", "vodka", "whiskey", "rum", "champagne", "gin", "tequila", "bier", "wein", "schnaps"}, "Alcohol"},
	{[]string{"coffee", "tea", "juice", "water bottle", "cola", "kaffee", "tee", "saft"}, "Beverages"},
	{[]string{"rewe", "aldi", "lidl", "edeka", "kaufland", "supermarkt", "grocery", "milk", "bread", "milch", "brot"}, "Groceries"},
	{[]string{"restaurant", "cafe", "pizza", "pasta", "burger", "sushi", "sandwich", "bistro"}, "Meals"},
	{[]string{"paper", "pen", "stapler", "folder", "notebook", "office", "büro", "drucker", "tinte"}, "Office Supplies"},
	{[]string{"monitor", "keyboard", "usb", "laptop", "computer", "headphones", "elektronik", "handy"}, "Electronics"},
	{[]string{"chair", "desk", "table", "shelf", "ikea", "möbel", "regal", "tisch", "stuhl"}, "Furniture"},
	{[]string{"fuel", "petrol", "diesel", "gas station", "shell", "aral", "esso", "benzin", "tankstelle", "kraftstoff"}, "Fuel"},
}

// categoryTranslations maps German and English phrasings found in queries to
// the canonical English category name. Iterated in order so longer, more
// specific keywords sit before their substrings.
var categoryTranslations = []struct {
	keyword  string
	category string
}{
	// German
	{"elektronik", "Electronics"},
	{"reisen", "Travel"},
	{"reise", "Travel"},
	{"mahlzeiten", "Meals"},
	{"essen", "Meals"},
	{"bürobedarf", "Office Supplies"},
	{"büro", "Office Supplies"},
	{"buero", "Office Supplies"},
	{"lebensmittel", "Groceries"},
	{"einkauf", "Groceries"},
	{"kraftstoff", "Fuel"},
	{"tanken", "Fuel"},
	{"benzin", "Fuel"},
	{"sprit", "Fuel"},
	{"alkohol", "Alcohol"},
	{"getränke", "Beverages"},
	{"getraenke", "Beverages"},
	{"möbel", "Furniture"},
	{"moebel", "Furniture"},
	// English
	{"electronics", "Electronics"},
	{"travel", "Travel"},
	{"meals", "Meals"},
	{"office supplies", "Office Supplies"},
	{"office", "Office Supplies"},
	{"groceries", "Groceries"},
	{"hardware", "Hardware"},
	{"software", "Software"},
	{"furniture", "Furniture"},
	{"fuel", "Fuel"},
	{"gas", "Fuel"},
	{"alcohol", "Alcohol"},
	{"beverages", "Beverages"},
	{"drinks", "Beverages"},
}

// germanKeywords and englishKeywords drive the language heuristic. These are
// frequency markers, not a classifier; short keyword-free text is expected to
// misdetect and that is acceptable.
var germanKeywords = []string{
	"wie", "viel", "zeig", "alle", "quittungen", "ausgaben", "habe", "ich",
	"und", "von", "für", "der", "die", "das", "ein", "eine", "über", "unter",
	"euro", "insgesamt", "welche", "wann", "wo", "wer", "warum", "gib", "mir",
	"finde", "suche",
}

var englishKeywords = []string{
	"how", "what", "which", "show", "find", "spent", "much", "many",
	"receipts", "the", "did", "does", "have", "has", "where", "when",
	"who", "why", "total", "from", "all",
}
