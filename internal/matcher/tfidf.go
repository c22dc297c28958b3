package matcher

import (
	"context"
	"math"
	"sort"
	"strings"
	"unicode"
)

// DefaultMaxFeatures TF-IDF 词表上限
const DefaultMaxFeatures = 5000

// TFIDFStrategy 稀疏 TF-IDF 策略：一元+二元词组、英文停用词、平滑 idf、L2 归一化
type TFIDFStrategy struct {
	maxFeatures int
}

// NewTFIDFStrategy 创建 TF-IDF 策略，maxFeatures<=0 时使用默认值
func NewTFIDFStrategy(maxFeatures int) *TFIDFStrategy {
	if maxFeatures <= 0 {
		maxFeatures = DefaultMaxFeatures
	}
	return &TFIDFStrategy{maxFeatures: maxFeatures}
}

// Name 实现 Strategy
func (s *TFIDFStrategy) Name() string { return StrategyTFIDF }

// sparseEntry 稀疏向量的一个非零分量
type sparseEntry struct {
	idx int
	w   float64
}

// sparseVector 按 idx 升序排列，求和顺序固定，相同文档得到完全相同的分数
type sparseVector []sparseEntry

// tfidfSpace 拟合结果，只读
type tfidfSpace struct {
	vocabulary map[string]int
	idf        []float64
	docs       []sparseVector
}

// Fit 实现 Strategy
func (s *TFIDFStrategy) Fit(ctx context.Context, corpus []string) (Space, error) {
	if len(corpus) == 0 {
		return nil, ErrEmptyCorpus
	}

	docTerms := make([]map[string]int, len(corpus))
	totalFreq := make(map[string]int)
	docFreq := make(map[string]int)
	for i, doc := range corpus {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		counts := termCounts(doc)
		docTerms[i] = counts
		for term, c := range counts {
			totalFreq[term] += c
			docFreq[term]++
		}
	}

	// 按语料总词频截断词表，同频按字母序
	terms := make([]string, 0, len(totalFreq))
	for term := range totalFreq {
		terms = append(terms, term)
	}
	sort.Slice(terms, func(i, j int) bool {
		if totalFreq[terms[i]] != totalFreq[terms[j]] {
			return totalFreq[terms[i]] > totalFreq[terms[j]]
		}
		return terms[i] < terms[j]
	})
	if len(terms) > s.maxFeatures {
		terms = terms[:s.maxFeatures]
	}
	sort.Strings(terms)

	space := &tfidfSpace{
		vocabulary: make(map[string]int, len(terms)),
		idf:        make([]float64, len(terms)),
		docs:       make([]sparseVector, len(corpus)),
	}
	n := float64(len(corpus))
	for idx, term := range terms {
		space.vocabulary[term] = idx
		space.idf[idx] = math.Log((1+n)/(1+float64(docFreq[term]))) + 1
	}
	for i, counts := range docTerms {
		space.docs[i] = space.weigh(counts)
	}
	return space, nil
}

// Score 实现 Space，词表外的查询词被忽略
func (sp *tfidfSpace) Score(ctx context.Context, query string) ([]float64, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	q := sp.weigh(termCounts(query))
	scores := make([]float64, len(sp.docs))
	if len(q) == 0 {
		return scores, nil
	}
	for i, doc := range sp.docs {
		scores[i] = clampUnit(sparseDot(q, doc))
	}
	return scores, nil
}

// weigh 词频 × idf 并做 L2 归一化
func (sp *tfidfSpace) weigh(counts map[string]int) sparseVector {
	vec := make(sparseVector, 0, len(counts))
	for term, c := range counts {
		idx, ok := sp.vocabulary[term]
		if !ok {
			continue
		}
		vec = append(vec, sparseEntry{idx: idx, w: float64(c) * sp.idf[idx]})
	}
	sort.Slice(vec, func(i, j int) bool { return vec[i].idx < vec[j].idx })

	var norm float64
	for _, e := range vec {
		norm += e.w * e.w
	}
	if norm == 0 {
		return nil
	}
	norm = math.Sqrt(norm)
	for i := range vec {
		vec[i].w /= norm
	}
	return vec
}

// sparseDot 归并两个有序稀疏向量
func sparseDot(a, b sparseVector) float64 {
	var sum float64
	for i, j := 0, 0; i < len(a) && j < len(b); {
		switch {
		case a[i].idx == b[j].idx:
			sum += a[i].w * b[j].w
			i++
			j++
		case a[i].idx < b[j].idx:
			i++
		default:
			j++
		}
	}
	return sum
}

// termCounts 分词（至少两个字符的词），去停用词后统计一元和二元词组
func termCounts(text string) map[string]int {
	tokens := tokenize(text)
	counts := make(map[string]int, len(tokens)*2)
	for i, tok := range tokens {
		counts[tok]++
		if i > 0 {
			counts[tokens[i-1]+" "+tok]++
		}
	}
	return counts
}

func tokenize(text string) []string {
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !(unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_')
	})
	tokens := fields[:0]
	for _, f := range fields {
		if len([]rune(f)) < 2 {
			continue
		}
		if _, stop := englishStopWords[f]; stop {
			continue
		}
		tokens = append(tokens, f)
	}
	return tokens
}
