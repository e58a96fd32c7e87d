package aqua

import "context"

// ChainResult aggregates one RevisionResult per revision, in chain order,
// plus the overall pass/fail, per spec §4.F.
type ChainResult struct {
	Revisions []RevisionResult
	Pass      bool
}

// chainFileProvider adapts a chain's file_index (hash -> external name)
// onto a plain FileProvider (name -> bytes), so the Revision Verifier can
// stay ignorant of AquaChain and just ask for bytes by file_hash.
type chainFileProvider struct {
	chain *AquaChain
	files FileProvider
}

func (p chainFileProvider) Read(ctx context.Context, fileHash string) ([]byte, error) {
	name, ok := p.chain.FileIndexName(fileHash)
	if !ok {
		name = fileHash
	}
	return p.files.Read(ctx, name)
}

// VerifyChain runs the Chain Verifier algorithm of spec §4.F: iterate
// revisions in insertion order, threading the previous hash, running the
// Revision Verifier on each with no short-circuit, and aggregating.
func VerifyChain(ctx context.Context, chain *AquaChain, files FileProvider, oracle Oracle, cfg VerifierConfig) ChainResult {
	var provider FileProvider
	if files != nil {
		provider = chainFileProvider{chain: chain, files: files}
	}
	var result ChainResult
	var prev Hash = ""
	for _, h := range chain.Order() {
		rev, _ := chain.Revision(h)
		rr := VerifyRevision(ctx, h, rev, prev, provider, oracle, cfg)
		result.Revisions = append(result.Revisions, rr)
		prev = h
	}
	result.Pass = true
	for _, rr := range result.Revisions {
		if !rr.Pass {
			result.Pass = false
			break
		}
	}
	return result
}
