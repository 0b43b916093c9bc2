package handler

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang/mock/gomock"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"auction-service/internal/auctionerrors"
	auction "auction-service/internal/auctionService"
	model "auction-service/internal/models"
	"auction-service/services/auction/helpers"
)

// Test PlaceBidHandler
func TestPlaceBidHandler(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockService := NewMockAuctionServiceInterface(ctrl)
	handler := NewAuctionHandler(mockService)

	// Initialize Gin in test mode
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.POST("/auctions/:auction_id/bids", handler.PlaceBidHandler)

	now := time.Now().UTC()

	tests := []struct {
		name           string
		auctionID      string
		requestBody    any
		mockSetup      func()
		expectedStatus int
		expectedMsg    string
		validateData   func(t *testing.T, data map[string]any)
	}{
		{
			name:      "success_valid_bid",
			auctionID: "auction1",
			requestBody: helpers.PlaceBidRequest{
				BidderID: "bidder1",
				Amount:   decimal.NewFromInt(150),
			},
			mockSetup: func() {
				mockService.EXPECT().
					PlaceBid("auction1", gomock.Any()).
					Return(model.Bid{
						ID:        uuid.NewString(),
						AuctionID: "auction1",
						BidderID:  "bidder1",
						Amount:    decimal.NewFromInt(150),
						PlacedAt:  now,
					}, nil)
			},
			expectedStatus: http.StatusCreated,
			expectedMsg:    "bid placed successfully",
			validateData: func(t *testing.T, data map[string]any) {
				bidID := data["bid_id"].(string)
				require.NotEmpty(t, bidID)
				_, parseErr := uuid.Parse(bidID)
				require.NoError(t, parseErr, "bid ID should be a valid UUID")
				require.Equal(t, "auction1", data["auction_id"])
				require.Equal(t, "bidder1", data["bidder_id"])
			},
		},
		{
			name:           "invalid_json",
			auctionID:      "auction1",
			requestBody:    `{invalid json}`,
			mockSetup:      func() {},
			expectedStatus: http.StatusBadRequest,
			expectedMsg:    "invalid request payload",
		},
		{
			name:      "missing_bidder_id",
			auctionID: "auction1",
			requestBody: helpers.PlaceBidRequest{
				Amount: decimal.NewFromInt(150),
			},
			mockSetup:      func() {},
			expectedStatus: http.StatusBadRequest,
			expectedMsg:    "invalid request payload",
		},
		{
			name:      "service_bid_too_low",
			auctionID: "auction2",
			requestBody: helpers.PlaceBidRequest{
				BidderID: "bidder1",
				Amount:   decimal.NewFromInt(50),
			},
			mockSetup: func() {
				mockService.EXPECT().
					PlaceBid("auction2", gomock.Any()).
					Return(model.Bid{}, auctionerrors.ErrBidTooLow)
			},
			expectedStatus: http.StatusConflict,
			expectedMsg:    "bid amount too low",
		},
		{
			name:      "service_auction_ended",
			auctionID: "auction3",
			requestBody: helpers.PlaceBidRequest{
				BidderID: "bidder1",
				Amount:   decimal.NewFromInt(150),
			},
			mockSetup: func() {
				mockService.EXPECT().
					PlaceBid("auction3", gomock.Any()).
					Return(model.Bid{}, auctionerrors.ErrAuctionEnded)
			},
			expectedStatus: http.StatusGone,
			expectedMsg:    "auction has ended",
		},
		{
			name:      "service_auction_not_found",
			auctionID: "auctionX",
			requestBody: helpers.PlaceBidRequest{
				BidderID: "bidder1",
				Amount:   decimal.NewFromInt(150),
			},
			mockSetup: func() {
				mockService.EXPECT().
					PlaceBid("auctionX", gomock.Any()).
					Return(model.Bid{}, auctionerrors.ErrAuctionNotFound)
			},
			expectedStatus: http.StatusNotFound,
			expectedMsg:    "auction not found",
		},
		{
			name:      "service_conflict_after_retries",
			auctionID: "auction4",
			requestBody: helpers.PlaceBidRequest{
				BidderID: "bidder1",
				Amount:   decimal.NewFromInt(150),
			},
			mockSetup: func() {
				mockService.EXPECT().
					PlaceBid("auction4", gomock.Any()).
					Return(model.Bid{}, auctionerrors.ErrConcurrencyConflict)
			},
			expectedStatus: http.StatusServiceUnavailable,
			expectedMsg:    "heavy bidding",
		},
		{
			name:      "service_generic_error",
			auctionID: "auction5",
			requestBody: helpers.PlaceBidRequest{
				BidderID: "bidder1",
				Amount:   decimal.NewFromInt(150),
			},
			mockSetup: func() {
				mockService.EXPECT().
					PlaceBid("auction5", gomock.Any()).
					Return(model.Bid{}, errors.New("database failure"))
			},
			expectedStatus: http.StatusInternalServerError,
			expectedMsg:    "internal server error",
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			var reqBody []byte
			var err error
			switch v := tc.requestBody.(type) {
			case string:
				reqBody = []byte(v)
			default:
				reqBody, err = json.Marshal(v)
				require.NoError(t, err)
			}

			tc.mockSetup()

			req := httptest.NewRequest(http.MethodPost, "/auctions/"+tc.auctionID+"/bids", bytes.NewReader(reqBody))
			req.Header.Set("Content-Type", "application/json")
			w := httptest.NewRecorder()

			router.ServeHTTP(w, req)

			require.Equal(t, tc.expectedStatus, w.Code)

			var resp map[string]any
			err = json.Unmarshal(w.Body.Bytes(), &resp)
			require.NoError(t, err)

			require.Contains(t, resp["message"], tc.expectedMsg)

			if tc.validateData != nil && w.Code == http.StatusCreated {
				data := resp["data"].(map[string]any)
				tc.validateData(t, data)
			}
		})
	}
}

// Test CreateAuctionHandler
func TestCreateAuctionHandler(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockService := NewMockAuctionServiceInterface(ctrl)
	handler := NewAuctionHandler(mockService)

	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.POST("/auctions", handler.CreateAuctionHandler)

	now := time.Now().UTC()

	validRequest := helpers.CreateAuctionRequest{
		OwnerID:       "owner1",
		ProductID:     "product1",
		ProductName:   "Fresh Apples",
		StartTime:     now,
		EndTime:       now.Add(24 * time.Hour),
		StartingPrice: decimal.NewFromInt(100),
	}

	tests := []struct {
		name           string
		requestBody    any
		mockSetup      func()
		expectedStatus int
		expectedMsg    string
	}{
		{
			name:        "success",
			requestBody: validRequest,
			mockSetup: func() {
				mockService.EXPECT().
					CreateAuction(gomock.Any()).
					Return(model.Auction{
						ID:      uuid.NewString(),
						OwnerID: "owner1",
						Status:  model.StatusActive,
					}, nil)
			},
			expectedStatus: http.StatusCreated,
			expectedMsg:    "auction created successfully",
		},
		{
			name:           "invalid_json",
			requestBody:    `{not json}`,
			mockSetup:      func() {},
			expectedStatus: http.StatusBadRequest,
			expectedMsg:    "invalid request payload",
		},
		{
			name: "missing_product",
			requestBody: helpers.CreateAuctionRequest{
				OwnerID:       "owner1",
				ProductName:   "Fresh Apples",
				StartTime:     now,
				EndTime:       now.Add(24 * time.Hour),
				StartingPrice: decimal.NewFromInt(100),
			},
			mockSetup:      func() {},
			expectedStatus: http.StatusBadRequest,
			expectedMsg:    "invalid request payload",
		},
		{
			name:        "service_invalid_input",
			requestBody: validRequest,
			mockSetup: func() {
				mockService.EXPECT().
					CreateAuction(gomock.Any()).
					Return(model.Auction{}, auctionerrors.ErrInvalidInput)
			},
			expectedStatus: http.StatusBadRequest,
			expectedMsg:    "invalid request details",
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			var reqBody []byte
			var err error
			switch v := tc.requestBody.(type) {
			case string:
				reqBody = []byte(v)
			default:
				reqBody, err = json.Marshal(v)
				require.NoError(t, err)
			}

			tc.mockSetup()

			req := httptest.NewRequest(http.MethodPost, "/auctions", bytes.NewReader(reqBody))
			req.Header.Set("Content-Type", "application/json")
			w := httptest.NewRecorder()

			router.ServeHTTP(w, req)

			require.Equal(t, tc.expectedStatus, w.Code)

			var resp map[string]any
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			require.Contains(t, resp["message"], tc.expectedMsg)
		})
	}
}

// Test GetAuctionHandler
func TestGetAuctionHandler(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockService := NewMockAuctionServiceInterface(ctrl)
	handler := NewAuctionHandler(mockService)

	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/auctions/:auction_id", handler.GetAuctionHandler)

	now := time.Now().UTC()

	tests := []struct {
		name           string
		auctionID      string
		mockSetup      func()
		expectedStatus int
		expectedMsg    string
		validateData   func(t *testing.T, data map[string]any)
	}{
		{
			name:      "success_with_bids",
			auctionID: "auction1",
			mockSetup: func() {
				mockService.EXPECT().
					GetAuction("auction1").
					Return(auction.AuctionDetail{
						Auction: model.Auction{ID: "auction1", Status: model.StatusActive},
						TopBids: []model.Bid{
							{ID: uuid.NewString(), AuctionID: "auction1", BidderID: "bidder1", Amount: decimal.NewFromInt(200), PlacedAt: now},
							{ID: uuid.NewString(), AuctionID: "auction1", BidderID: "bidder2", Amount: decimal.NewFromInt(150), PlacedAt: now},
						},
						TotalBidCount: 2,
					}, nil)
			},
			expectedStatus: http.StatusOK,
			expectedMsg:    "auction retrieved successfully",
			validateData: func(t *testing.T, data map[string]any) {
				topBids := data["top_bids"].([]any)
				require.Len(t, topBids, 2)
				require.Equal(t, float64(2), data["total_bid_count"])
			},
		},
		{
			name:      "auction_not_found",
			auctionID: "auctionX",
			mockSetup: func() {
				mockService.EXPECT().
					GetAuction("auctionX").
					Return(auction.AuctionDetail{}, auctionerrors.ErrAuctionNotFound)
			},
			expectedStatus: http.StatusNotFound,
			expectedMsg:    "auction not found",
		},
		{
			name:      "service_generic_error",
			auctionID: "auction2",
			mockSetup: func() {
				mockService.EXPECT().
					GetAuction("auction2").
					Return(auction.AuctionDetail{}, errors.New("db failure"))
			},
			expectedStatus: http.StatusInternalServerError,
			expectedMsg:    "internal server error",
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			tc.mockSetup()

			req := httptest.NewRequest(http.MethodGet, "/auctions/"+tc.auctionID, nil)
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			require.Equal(t, tc.expectedStatus, w.Code)

			var resp map[string]any
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			require.Contains(t, resp["message"], tc.expectedMsg)

			if tc.validateData != nil && w.Code == http.StatusOK {
				data := resp["data"].(map[string]any)
				tc.validateData(t, data)
			}
		})
	}
}

// Test EndAuctionEarlyHandler
func TestEndAuctionEarlyHandler(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockService := NewMockAuctionServiceInterface(ctrl)
	handler := NewAuctionHandler(mockService)

	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.POST("/auctions/:auction_id/end", handler.EndAuctionEarlyHandler)

	tests := []struct {
		name           string
		auctionID      string
		mockSetup      func()
		expectedStatus int
		expectedMsg    string
	}{
		{
			name:      "success",
			auctionID: "auction1",
			mockSetup: func() {
				winningBidID := uuid.NewString()
				mockService.EXPECT().
					EndAuctionEarly("auction1").
					Return(model.Auction{
						ID:           "auction1",
						Status:       model.StatusCompleted,
						WinningBidID: &winningBidID,
					}, nil)
			},
			expectedStatus: http.StatusOK,
			expectedMsg:    "auction ended successfully",
		},
		{
			name:      "no_bids",
			auctionID: "auction2",
			mockSetup: func() {
				mockService.EXPECT().
					EndAuctionEarly("auction2").
					Return(model.Auction{}, auctionerrors.ErrNoBids)
			},
			expectedStatus: http.StatusConflict,
			expectedMsg:    "cannot end auction with no bids",
		},
		{
			name:      "already_resolved",
			auctionID: "auction3",
			mockSetup: func() {
				mockService.EXPECT().
					EndAuctionEarly("auction3").
					Return(model.Auction{}, auctionerrors.ErrInvalidState)
			},
			expectedStatus: http.StatusConflict,
			expectedMsg:    "not in a valid state",
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			tc.mockSetup()

			req := httptest.NewRequest(http.MethodPost, "/auctions/"+tc.auctionID+"/end", nil)
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			require.Equal(t, tc.expectedStatus, w.Code)

			var resp map[string]any
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			require.Contains(t, resp["message"], tc.expectedMsg)
		})
	}
}

// Test GetBuyerActivityHandler
func TestGetBuyerActivityHandler(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockService := NewMockAuctionServiceInterface(ctrl)
	handler := NewAuctionHandler(mockService)

	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/buyers/:buyer_id/activity", handler.GetBuyerActivityHandler)

	tests := []struct {
		name           string
		buyerID        string
		mockSetup      func()
		expectedStatus int
		expectedMsg    string
		expectedCount  int
	}{
		{
			name:    "success_with_activity",
			buyerID: "bidder1",
			mockSetup: func() {
				mockService.EXPECT().
					GetBuyerActivity("bidder1").
					Return([]auction.BuyerAuctionActivity{
						{AuctionID: "auction1", MyBid: decimal.NewFromInt(100), IsWinning: true, MyBidRank: 1},
					}, nil)
			},
			expectedStatus: http.StatusOK,
			expectedMsg:    "buyer activity retrieved successfully",
			expectedCount:  1,
		},
		{
			name:    "success_no_activity",
			buyerID: "bidder2",
			mockSetup: func() {
				mockService.EXPECT().
					GetBuyerActivity("bidder2").
					Return(nil, nil)
			},
			expectedStatus: http.StatusOK,
			expectedMsg:    "buyer activity retrieved successfully",
			expectedCount:  0,
		},
		{
			name:    "service_generic_error",
			buyerID: "bidder3",
			mockSetup: func() {
				mockService.EXPECT().
					GetBuyerActivity("bidder3").
					Return(nil, errors.New("db failure"))
			},
			expectedStatus: http.StatusInternalServerError,
			expectedMsg:    "internal server error",
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			tc.mockSetup()

			req := httptest.NewRequest(http.MethodGet, "/buyers/"+tc.buyerID+"/activity", nil)
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			require.Equal(t, tc.expectedStatus, w.Code)

			var resp map[string]any
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			require.Contains(t, resp["message"], tc.expectedMsg)

			if w.Code == http.StatusOK {
				data := resp["data"].([]any)
				require.Len(t, data, tc.expectedCount)
			}
		})
	}
}
