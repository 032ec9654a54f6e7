package categorize

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Topic binds a taxonomy key to the merchant keywords that indicate it.
// The key also names the topic: a user category whose normalized name
// contains the key receives the topic's transactions.
type Topic struct {
	Key      string   `yaml:"key"`
	Keywords []string `yaml:"keywords"`
}

// Engine holds an ordered topic list. Order matters: the first topic
// with a keyword hit decides, so more specific topics must precede the
// generic ones (groceries before shopping, travel before transport).
type Engine struct {
	topics []Topic
}

// defaultTopics is the built-in taxonomy. It can be replaced wholesale
// from a YAML file via NewEngineFromFile.
var defaultTopics = []Topic{
	{Key: "grocer", Keywords: []string{"grocery", "groceries", "supermarket", "market", "aldi", "lidl", "tesco", "walmart"}},
	{Key: "food", Keywords: []string{"restaurant", "cafe", "food", "dining", "starbucks", "mcdonald", "pizza", "burger", "bakery"}},
	{Key: "travel", Keywords: []string{"airline", "airways", "flight", "hotel", "airbnb", "booking com", "hostel"}},
	{Key: "transport", Keywords: []string{"grab", "uber", "taxi", "transport", "mrt", "bus", "rail", "metro", "fuel", "petrol", "parking"}},
	{Key: "subscription", Keywords: []string{"subscription", "netflix", "spotify", "prime video", "icloud", "patreon"}},
	{Key: "entertainment", Keywords: []string{"cinema", "movie", "theatre", "concert", "game", "steam", "playstation"}},
	{Key: "utilit", Keywords: []string{"electric", "water", "gas bill", "internet", "broadband", "telecom", "mobile bill", "utility"}},
	{Key: "health", Keywords: []string{"pharmacy", "clinic", "hospital", "dental", "doctor", "medical"}},
	{Key: "education", Keywords: []string{"tuition", "course", "udemy", "coursera", "school", "university", "bookstore"}},
	{Key: "shopping", Keywords: []string{"shop", "store", "retail", "amazon", "lazada", "ebay", "mall"}},
}

// NewEngine returns an engine over the built-in taxonomy.
func NewEngine() *Engine {
	return &Engine{topics: defaultTopics}
}

// NewEngineWithTopics builds an engine over a caller-supplied taxonomy,
// preserving the given order.
func NewEngineWithTopics(topics []Topic) *Engine {
	return &Engine{topics: topics}
}

// NewEngineFromFile loads a taxonomy override from a YAML file of the
// shape:
//
//	topics:
//	  - key: food
//	    keywords: [restaurant, cafe]
func NewEngineFromFile(path string) (*Engine, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read taxonomy file: %w", err)
	}
	var doc struct {
		Topics []Topic `yaml:"topics"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse taxonomy file: %w", err)
	}
	if len(doc.Topics) == 0 {
		return nil, fmt.Errorf("taxonomy file %s defines no topics", path)
	}
	return &Engine{topics: doc.Topics}, nil
}
