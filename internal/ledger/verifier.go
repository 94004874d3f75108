package ledger

import (
	"fmt"

	"github.com/gosuda/assetledger/internal/domain"
)

// Verify walks records in order and reports the first record that fails a
// check. Records after a break are not examined: they cannot be trusted
// relative to a corrupted predecessor. Verify does not modify records.
func Verify(records []*domain.AuditRecord) domain.ChainVerification {
	total := len(records)

	for i, rec := range records {
		if expected := ComputeHash(rec); expected != rec.CurrentHash {
			return broken(total, i, domain.ChainFailureContentHash,
				fmt.Sprintf("content hash mismatch at index %d: expected %s, got %s", i, short(expected), short(rec.CurrentHash)))
		}

		if i == 0 {
			if rec.PreviousHash != domain.GenesisHash {
				return broken(total, i, domain.ChainFailureGenesis,
					fmt.Sprintf("genesis mismatch at index 0: previous hash is %q", short(rec.PreviousHash)))
			}
		} else if prev := records[i-1]; rec.PreviousHash != prev.CurrentHash {
			return broken(total, i, domain.ChainFailureBrokenLink,
				fmt.Sprintf("broken link at index %d: previous hash %s does not match record %d hash %s",
					i, short(rec.PreviousHash), i-1, short(prev.CurrentHash)))
		}

		if rec.ChainIndex != i {
			return broken(total, i, domain.ChainFailureIndexGap,
				fmt.Sprintf("index gap at index %d: record claims chain index %d", i, rec.ChainIndex))
		}
	}

	return domain.ChainVerification{
		IsValid:         true,
		TotalRecords:    total,
		VerifiedRecords: total,
	}
}

func broken(total, at int, failure domain.ChainFailure, msg string) domain.ChainVerification {
	return domain.ChainVerification{
		IsValid:         false,
		TotalRecords:    total,
		VerifiedRecords: at,
		BrokenAtIndex:   &at,
		ErrorMessage:    &msg,
		Failure:         &failure,
	}
}

func short(h string) string {
	if len(h) > 16 {
		return h[:16] + "..."
	}
	return h
}
