package client

import (
	"context"
	"fmt"
	"math/big"
	"strings"
	"sync"
	"time"

	"wallet_scorer/internal/app/port"
	"wallet_scorer/internal/domain/entity"
	"wallet_scorer/internal/pkg/utils"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/rpc"
)

// ERC-1155 ABI minimal part for balanceOf
const erc1155ABI = `[{"constant":true,"inputs":[{"name":"_owner","type":"address"},{"name":"_id","type":"uint256"}],"name":"balanceOf","outputs":[{"name":"","type":"uint256"}],"payable":false,"stateMutability":"view","type":"function"}]`

var (
	parsedERC1155ABI  abi.ABI
	parsedERC1155Once sync.Once
)

func initParsedERC1155ABI() {
	parsedERC1155Once.Do(func() {
		var err error
		parsedERC1155ABI, err = abi.JSON(strings.NewReader(erc1155ABI))
		if err != nil {
			// Critical error during initialization, panic is appropriate
			panic(fmt.Sprintf("failed to parse ERC1155 ABI: %v", err))
		}
	})
}

// EVMClient implements the port.ChainClient interface for EVM-compatible chains.
type EVMClient struct {
	ethClient      *ethclient.Client
	logger         port.Logger
	rpcCallTimeout time.Duration
	batchTimeout   time.Duration
	probeBatchSize int
}

// NewEVMClient dials the node and returns a chain client with bounded call
// timeouts. probeBatchSize caps how many balanceOf probes go into one
// JSON-RPC batch request.
func NewEVMClient(rpcURL string, connectionTimeout, rpcCallTimeout, batchTimeout time.Duration, probeBatchSize int, log port.Logger) (port.ChainClient, error) {
	initParsedERC1155ABI()

	ctx, cancel := context.WithTimeout(context.Background(), connectionTimeout)
	defer cancel()

	ethClient, err := ethclient.DialContext(ctx, rpcURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RPC %s: %w", rpcURL, err)
	}

	if probeBatchSize <= 0 {
		probeBatchSize = 100
	}
	return &EVMClient{
		ethClient:      ethClient,
		logger:         log,
		rpcCallTimeout: rpcCallTimeout,
		batchTimeout:   batchTimeout,
		probeBatchSize: probeBatchSize,
	}, nil
}

// GetNativeBalance fetches the wei balance of the address at the latest block.
func (c *EVMClient) GetNativeBalance(ctx context.Context, address entity.Address) (*big.Int, error) {
	callCtx, cancel := context.WithTimeout(ctx, c.rpcCallTimeout)
	defer cancel()

	balance, err := c.ethClient.BalanceAt(callCtx, common.HexToAddress(address.String()), nil)
	if err != nil {
		return nil, entity.NewSourceError("rpc", "eth_getBalance", "balance lookup failed", err)
	}
	return balance, nil
}

// GetTransactionCount fetches the account nonce at the latest block.
func (c *EVMClient) GetTransactionCount(ctx context.Context, address entity.Address) (uint64, error) {
	callCtx, cancel := context.WithTimeout(ctx, c.rpcCallTimeout)
	defer cancel()

	nonce, err := c.ethClient.NonceAt(callCtx, common.HexToAddress(address.String()), nil)
	if err != nil {
		return 0, entity.NewSourceError("rpc", "eth_getTransactionCount", "nonce lookup failed", err)
	}
	return nonce, nil
}

// GetCurrentBlock fetches the latest block number.
func (c *EVMClient) GetCurrentBlock(ctx context.Context) (uint64, error) {
	callCtx, cancel := context.WithTimeout(ctx, c.rpcCallTimeout)
	defer cancel()

	block, err := c.ethClient.BlockNumber(callCtx)
	if err != nil {
		return 0, entity.NewSourceError("rpc", "eth_blockNumber", "block number lookup failed", err)
	}
	return block, nil
}

// GetOwnedTokenIDs probes token ids [1, maxID] of an ERC-1155 contract using
// JSON-RPC batch requests, bounding round-trip count when the id space is
// large. A failed batch degrades to "none owned in that batch" rather than
// failing the whole probe.
func (c *EVMClient) GetOwnedTokenIDs(ctx context.Context, contract string, address entity.Address, maxID uint64) ([]uint64, error) {
	if contract == "" || maxID == 0 {
		return nil, nil
	}

	contractAddr := common.HexToAddress(contract)
	ownerAddr := common.HexToAddress(address.String())

	var owned []uint64
	var lastErr error

	for _, ids := range utils.BatchUint64Range(maxID, c.probeBatchSize) {
		batchElems := make([]rpc.BatchElem, len(ids))
		for i, id := range ids {
			callData, err := parsedERC1155ABI.Pack("balanceOf", ownerAddr, new(big.Int).SetUint64(id))
			if err != nil {
				return owned, entity.NewSourceError("rpc", "eth_call", "failed to pack balanceOf calldata", err)
			}
			callArgs := map[string]interface{}{
				"to":   contractAddr,
				"data": hexutil.Bytes(callData),
			}
			batchElems[i] = rpc.BatchElem{
				Method: "eth_call",
				Args:   []interface{}{callArgs, "latest"},
				Result: new(hexutil.Bytes),
			}
		}

		batchCtx, cancel := context.WithTimeout(ctx, c.batchTimeout)
		err := c.ethClient.Client().BatchCallContext(batchCtx, batchElems)
		cancel()
		if err != nil {
			lastErr = entity.NewSourceError("rpc", "eth_call", "ownership probe batch failed", err)
			c.logger.Warn("Ownership probe batch failed",
				"contract", contract,
				"batchSize", len(ids),
				"error", err)
			continue
		}

		for i, elem := range batchElems {
			if elem.Error != nil {
				continue
			}
			result, ok := elem.Result.(*hexutil.Bytes)
			if !ok || result == nil || len(*result) == 0 {
				continue
			}
			unpacked, err := parsedERC1155ABI.Unpack("balanceOf", *result)
			if err != nil || len(unpacked) == 0 {
				continue
			}
			if balance, ok := unpacked[0].(*big.Int); ok && balance.Sign() > 0 {
				owned = append(owned, ids[i])
			}
		}
	}

	if len(owned) == 0 && lastErr != nil {
		return nil, lastErr
	}
	return owned, nil
}
