package async_indexer

import (
	"context"
	"time"

	"github.com/mr-tron/base58"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/solmarket/marketplace-server/pkg/database/query"
	"github.com/solmarket/marketplace-server/pkg/retry"
	"github.com/solmarket/marketplace-server/pkg/retry/backoff"
	"github.com/solmarket/marketplace-server/pkg/solana"
	marketplace_program "github.com/solmarket/marketplace-server/pkg/solana/marketplace"

	"github.com/solmarket/marketplace-server/pkg/market/async"
	market_data "github.com/solmarket/marketplace-server/pkg/market/data"
	"github.com/solmarket/marketplace-server/pkg/market/data/listing"
	marketplace_store "github.com/solmarket/marketplace-server/pkg/market/data/marketplace"
	"github.com/solmarket/marketplace-server/pkg/market/data/sale"
)

const (
	listingPageSize = 250
)

type service struct {
	log    *logrus.Entry
	data   market_data.Provider
	client solana.Client
}

// New returns a worker that keeps the data layer in sync with on-chain
// program state.
func New(data market_data.Provider, client solana.Client) async.Service {
	return &service{
		log:    logrus.StandardLogger().WithField("service", "indexer"),
		data:   data,
		client: client,
	}
}

func (p *service) Start(serviceCtx context.Context, interval time.Duration) error {
	for {
		_, err := retry.Retry(
			func() error {
				p.log.Trace("indexing program accounts")

				err := p.Update(serviceCtx)
				if err != nil {
					p.log.WithError(err).Warn("failed to update indexed program state")
				}

				return err
			},
			retry.NonRetriableErrors(context.Canceled),
			retry.BackoffWithJitter(backoff.BinaryExponential(time.Second), interval, 0.1),
		)
		if err != nil {
			if err != context.Canceled {
				p.log.WithError(err).Warn("unexpected error when updating indexed program state")
			}

			return err
		}

		select {
		case <-serviceCtx.Done():
			return serviceCtx.Err()
		case <-time.After(interval):
		}
	}
}

// Update performs a single indexing pass: it snapshots every program account,
// refreshes marketplace records, inserts newly observed listings, and closes
// listings that no longer exist on chain. A closed listing whose marketplace
// volume advanced by at least its price is recorded as a sale; otherwise it
// was cancelled.
func (p *service) Update(ctx context.Context) error {
	accounts, slot, err := p.client.GetProgramAccounts(marketplace_program.PROGRAM_ID, solana.CommitmentFinalized)
	if err != nil {
		return errors.Wrap(err, "failed to get program accounts")
	}

	observed := make(map[string]*marketplace_program.ListingAccount)
	volumeDelta := make(map[string]uint64)
	feeBasisPoints := make(map[string]uint16)

	for _, account := range accounts {
		data := account.Account.Data
		if len(data) == 0 {
			continue
		}

		address := base58.Encode(account.PublicKey)

		switch marketplace_program.AccountType(data[0]) {
		case marketplace_program.AccountTypeMarketplace:
			var record marketplace_program.MarketplaceAccount
			if err := record.Unmarshal(data); err != nil {
				p.log.WithField("address", address).WithError(err).Warn("dropping malformed marketplace account")
				continue
			}

			if err := p.updateMarketplace(ctx, address, &record, slot, volumeDelta, feeBasisPoints); err != nil {
				return err
			}
		case marketplace_program.AccountTypeListing:
			var record marketplace_program.ListingAccount
			if err := record.Unmarshal(data); err != nil {
				p.log.WithField("address", address).WithError(err).Warn("dropping malformed listing account")
				continue
			}

			observed[address] = &record
		}
	}

	for address, record := range observed {
		err := p.data.PutListing(ctx, &listing.Record{
			Address:     address,
			Seller:      base58.Encode(record.Seller),
			NftMint:     base58.Encode(record.NftMint),
			Marketplace: base58.Encode(record.Marketplace),
			Price:       record.Price,
			State:       listing.StateActive,
			ListedAt:    time.Unix(record.CreatedAt, 0),
			LastSlot:    slot,
		})
		if err != nil && err != listing.ErrAlreadyExists {
			return errors.Wrap(err, "failed to store listing")
		}
	}

	return p.closeMissingListings(ctx, observed, volumeDelta, feeBasisPoints, slot)
}

func (p *service) updateMarketplace(
	ctx context.Context,
	address string,
	record *marketplace_program.MarketplaceAccount,
	slot uint64,
	volumeDelta map[string]uint64,
	feeBasisPoints map[string]uint16,
) error {
	feeBasisPoints[address] = record.FeeBasisPoints

	previousVolume := uint64(0)
	stored, err := p.data.GetMarketplace(ctx, address)
	if err == nil {
		previousVolume = stored.TotalVolume
	} else if err != marketplace_store.ErrNotFound {
		return errors.Wrap(err, "failed to load stored marketplace")
	}

	if record.TotalVolume > previousVolume {
		volumeDelta[address] = record.TotalVolume - previousVolume
	}

	err = p.data.SaveMarketplace(ctx, &marketplace_store.Record{
		Address:        address,
		Authority:      base58.Encode(record.Authority),
		FeeBasisPoints: record.FeeBasisPoints,
		FeeRecipient:   base58.Encode(record.FeeRecipient),
		TotalVolume:    record.TotalVolume,
		TotalSales:     record.TotalSales,
		LastSlot:       slot,
	})
	if err == marketplace_store.ErrStaleState {
		// A concurrent pass observed a later slot.
		return nil
	}
	return errors.Wrap(err, "failed to save marketplace")
}

func (p *service) closeMissingListings(
	ctx context.Context,
	observed map[string]*marketplace_program.ListingAccount,
	volumeDelta map[string]uint64,
	feeBasisPoints map[string]uint16,
	slot uint64,
) error {
	var cursor query.Cursor
	for {
		records, err := p.data.GetAllListingsByState(
			ctx,
			listing.StateActive,
			query.WithCursor(cursor),
			query.WithLimit(listingPageSize),
		)
		if err == listing.ErrNotFound {
			return nil
		} else if err != nil {
			return errors.Wrap(err, "failed to load active listings")
		}

		for _, record := range records {
			if _, ok := observed[record.Address]; ok {
				continue
			}
			// Don't close listings first seen in this pass; the account
			// snapshot already reflects them.
			if record.LastSlot >= slot {
				continue
			}

			if err := p.closeListing(ctx, record, volumeDelta, feeBasisPoints, slot); err != nil {
				return err
			}
		}

		cursor = query.ToCursor(records[len(records)-1].Id)
	}
}

func (p *service) closeListing(
	ctx context.Context,
	record *listing.Record,
	volumeDelta map[string]uint64,
	feeBasisPoints map[string]uint16,
	slot uint64,
) error {
	log := p.log.WithField("listing", record.Address)

	closedAt := time.Now()
	sold := volumeDelta[record.Marketplace] >= record.Price

	if sold {
		volumeDelta[record.Marketplace] -= record.Price

		calculator := &marketplace_program.MarketplaceAccount{
			FeeBasisPoints: feeBasisPoints[record.Marketplace],
		}
		fee, err := calculator.CalculateFee(record.Price)
		if err != nil {
			return errors.Wrap(err, "failed to calculate sale fee")
		}

		err = p.data.PutSale(ctx, &sale.Record{
			Listing:     record.Address,
			NftMint:     record.NftMint,
			Seller:      record.Seller,
			Marketplace: record.Marketplace,
			Price:       record.Price,
			Fee:         fee,
			Slot:        slot,
			SoldAt:      closedAt,
		})
		if err != nil && err != sale.ErrAlreadyExists {
			return errors.Wrap(err, "failed to store sale")
		}

		record.State = listing.StateSold
		log.WithField("price", record.Price).Debug("listing sold")
	} else {
		record.State = listing.StateCancelled
		log.Debug("listing cancelled")
	}

	record.ClosedAt = &closedAt
	record.LastSlot = slot

	return errors.Wrap(p.data.UpdateListing(ctx, record), "failed to update closed listing")
}
