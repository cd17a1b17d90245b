package raid

import (
	"math/rand"
	"strconv"
	"time"
)

// ルームコードに使う記号。紛らわしい 0/O/1/I は除外した32文字
const roomCodeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// ルームコードの長さ
const roomCodeLength = 6

// 乱数はルームコードとプレイヤートークンの生成に使用
func createLocalRandGenerator() *rand.Rand {
	source := rand.NewSource(time.Now().UnixNano())
	return rand.New(source)
}

// generateRoomCode は6文字のルームコードを生成します。
// 1文字ずつ独立に引くだけで、既存コードとの衝突チェックはしない（元仕様どおり）
func generateRoomCode(randGen *rand.Rand) string {
	code := make([]byte, roomCodeLength)
	for i := range code {
		code[i] = roomCodeAlphabet[randGen.Intn(len(roomCodeAlphabet))]
	}
	return string(code)
}

// generatePlayerToken はプレイヤートークンを生成します。
// 36進数の乱数断片＋36進数のミリ秒タイムスタンプ断片の連結。
// 暗号強度ではなく衝突しにくさだけを狙った形式で、完全一致で照合する
func generatePlayerToken(randGen *rand.Rand, now time.Time) string {
	randomPart := strconv.FormatInt(randGen.Int63(), 36)
	timePart := strconv.FormatInt(now.UnixMilli(), 36)
	return randomPart + timePart
}
