package nft

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/lil-gargs/backend/internal/models"
	"go.uber.org/zap"
)

const (
	dasPageLimit = 1000
	dasMaxPages  = 10
)

// Oracle answers "how many qualifying tokens does this address hold" via the
// Helius DAS API (getAssetsByOwner). Transport failures are returned as errors
// and are retryable; "owns zero tokens" is a successful result.
type Oracle struct {
	endpoint          string
	apiKey            string
	defaultCollection string
	httpClient        *http.Client
	log               *zap.Logger
}

func NewOracle(endpoint, apiKey, defaultCollection string, timeout time.Duration, log *zap.Logger) *Oracle {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Oracle{
		endpoint:          strings.TrimRight(endpoint, "/"),
		apiKey:            apiKey,
		defaultCollection: defaultCollection,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		log: log,
	}
}

type OwnershipResult struct {
	IsVerified bool              `json:"is_verified"`
	NFTCount   int               `json:"nft_count"`
	NFTs       []models.OwnedNFT `json:"nfts"`
	ByContract map[string]int    `json:"by_contract,omitempty"`
}

type dasRequest struct {
	JSONRPC string    `json:"jsonrpc"`
	ID      string    `json:"id"`
	Method  string    `json:"method"`
	Params  dasParams `json:"params"`
}

type dasParams struct {
	OwnerAddress string `json:"ownerAddress"`
	Page         int    `json:"page"`
	Limit        int    `json:"limit"`
}

type dasResponse struct {
	Result *struct {
		Total int        `json:"total"`
		Items []dasAsset `json:"items"`
	} `json:"result"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

type dasAsset struct {
	ID       string `json:"id"`
	Grouping []struct {
		GroupKey   string `json:"group_key"`
		GroupValue string `json:"group_value"`
	} `json:"grouping"`
	Content struct {
		Metadata struct {
			Name string `json:"name"`
		} `json:"metadata"`
		Links struct {
			Image string `json:"image"`
		} `json:"links"`
	} `json:"content"`
}

// CheckOwnership возвращает количество подходящих токенов адреса. Если
// contracts пуст — используется коллекция по умолчанию; иначе считаем
// per-contract разбивку, чтобы вызывающий мог оценить многоуровневые правила
// независимо.
func (o *Oracle) CheckOwnership(ctx context.Context, address string, contracts []string) (*OwnershipResult, error) {
	if len(contracts) == 0 && o.defaultCollection != "" {
		contracts = []string{o.defaultCollection}
	}

	wanted := make(map[string]bool, len(contracts))
	for _, c := range contracts {
		wanted[c] = true
	}

	result := &OwnershipResult{
		NFTs:       []models.OwnedNFT{},
		ByContract: make(map[string]int, len(contracts)),
	}

	for page := 1; page <= dasMaxPages; page++ {
		items, err := o.fetchPage(ctx, address, page)
		if err != nil {
			return nil, err
		}

		for _, item := range items {
			collection := assetCollection(item)
			if len(wanted) > 0 && !wanted[collection] {
				continue
			}
			result.NFTCount++
			if collection != "" {
				result.ByContract[collection]++
			}
			result.NFTs = append(result.NFTs, models.OwnedNFT{
				Mint:  item.ID,
				Name:  item.Content.Metadata.Name,
				Image: item.Content.Links.Image,
			})
		}

		if len(items) < dasPageLimit {
			break
		}
	}

	result.IsVerified = result.NFTCount > 0
	return result, nil
}

func (o *Oracle) fetchPage(ctx context.Context, address string, page int) ([]dasAsset, error) {
	body, err := json.Marshal(dasRequest{
		JSONRPC: "2.0",
		ID:      "lil-gargs",
		Method:  "getAssetsByOwner",
		Params: dasParams{
			OwnerAddress: address,
			Page:         page,
			Limit:        dasPageLimit,
		},
	})
	if err != nil {
		return nil, err
	}

	url := o.endpoint
	if o.apiKey != "" {
		url = fmt.Sprintf("%s/?api-key=%s", o.endpoint, o.apiKey)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, strings.NewReader(string(body)))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := o.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("nft oracle unavailable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("nft oracle returned %d: %s", resp.StatusCode, string(b))
	}

	var parsed dasResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("nft oracle bad response: %w", err)
	}
	if parsed.Error != nil {
		return nil, fmt.Errorf("nft oracle rpc error %d: %s", parsed.Error.Code, parsed.Error.Message)
	}
	if parsed.Result == nil {
		return nil, fmt.Errorf("nft oracle empty result")
	}

	return parsed.Result.Items, nil
}

func assetCollection(item dasAsset) string {
	for _, g := range item.Grouping {
		if g.GroupKey == "collection" {
			return g.GroupValue
		}
	}
	return ""
}
