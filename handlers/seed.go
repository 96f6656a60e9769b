package handlers

import (
	"context"
	"fmt"
	"time"

	"github.com/adamspd/patentehub/db"
	"github.com/adamspd/patentehub/models"
	"github.com/adamspd/patentehub/utils"
)

// SeedEpoch stamps every reference record so that reseeding rewrites
// identical documents.
var SeedEpoch = time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)

// Seed upserts the reference dataset. Records keep their fixed ids, so
// running it again only overwrites them with the same content.
func (ah *AdminHandlers) Seed(ctx context.Context, token string) Response[int] {
	start := time.Now()
	var n int
	err := ah.asAdmin(ctx, token, func(tx *db.Tx, admin *models.User) error {
		var err error
		n, err = SeedReference(tx)
		if err != nil {
			return err
		}
		return ah.audit(tx, admin.ID, models.ActionSeed, fmt.Sprintf("%d reference records", n))
	})
	if err != nil {
		return fail[int](err)
	}

	utils.LogAPI("Seeded %d reference record(s) in %v", n, time.Since(start))
	return ok(n)
}

// SeedReference writes the reference dataset inside tx and returns how many
// records it wrote.
func SeedReference(tx *db.Tx) (int, error) {
	n := 0
	put := func(coll string, rec interface{}) error {
		n++
		return tx.Put(coll, rec)
	}

	for _, s := range seedSections {
		s.CreatedAt = SeedEpoch
		if err := put(db.Sections, s); err != nil {
			return 0, err
		}
	}
	for _, l := range seedLessons {
		l.CreatedAt = SeedEpoch
		if err := put(db.Lessons, l); err != nil {
			return 0, err
		}
	}
	for _, q := range seedQuestions {
		q.CreatedAt = SeedEpoch
		if err := put(db.Questions, q); err != nil {
			return 0, err
		}
	}
	for _, s := range seedSigns {
		s.CreatedAt = SeedEpoch
		if err := put(db.Signs, s); err != nil {
			return 0, err
		}
	}
	for _, s := range seedDictSections {
		s.CreatedAt = SeedEpoch
		if err := put(db.DictionarySections, s); err != nil {
			return 0, err
		}
	}
	for _, e := range seedDictEntries {
		e.CreatedAt = SeedEpoch
		if err := put(db.DictionaryEntries, e); err != nil {
			return 0, err
		}
	}
	return n, nil
}

var seedSections = []models.Section{
	{ID: "s1", NameAr: "إشارات الخطر", NameIt: "Segnali di pericolo", DescriptionAr: "تعرف على إشارات التحذير من الأخطار", DescriptionIt: "Impara i segnali di pericolo", Icon: "warning", Color: "#ef4444", Order: 1},
	{ID: "s2", NameAr: "إشارات المنع", NameIt: "Segnali di divieto", DescriptionAr: "إشارات الحظر والمنع المرورية", DescriptionIt: "Segnali di divieto stradali", Icon: "block", Color: "#dc2626", Order: 2},
	{ID: "s3", NameAr: "إشارات الإلزام", NameIt: "Segnali d'obbligo", DescriptionAr: "الإشارات التي تلزمك بفعل معين", DescriptionIt: "Segnali che obbligano a un comportamento", Icon: "arrow_circle_up", Color: "#2563eb", Order: 3},
	{ID: "s4", NameAr: "أولوية المرور", NameIt: "Precedenza", DescriptionAr: "قواعد الأولوية في التقاطعات", DescriptionIt: "Regole di precedenza", Icon: "swap_vert", Color: "#f59e0b", Order: 4},
	{ID: "s5", NameAr: "حدود السرعة", NameIt: "Limiti di velocità", DescriptionAr: "السرعات القصوى على أنواع الطرق", DescriptionIt: "Limiti di velocità sulle strade", Icon: "speed", Color: "#8b5cf6", Order: 5},
	{ID: "s6", NameAr: "مسافة الأمان", NameIt: "Distanza di sicurezza", DescriptionAr: "المسافة الآمنة بين المركبات", DescriptionIt: "Distanza di sicurezza tra veicoli", Icon: "social_distance", Color: "#06b6d4", Order: 6},
}

var seedLessons = []models.Lesson{
	{ID: "l1", SectionID: "s1", TitleAr: "مقدمة في إشارات الخطر", TitleIt: "Introduzione ai segnali di pericolo", ContentAr: "إشارات الخطر هي إشارات تحذيرية تنبه السائق إلى وجود خطر محتمل على الطريق. تتميز بشكلها المثلثي مع حافة حمراء وخلفية بيضاء. توضع عادة على بعد 150 متراً من الخطر.", ContentIt: "I segnali di pericolo sono segnali di avvertimento che avvisano il conducente della presenza di un potenziale pericolo sulla strada. Hanno forma triangolare con bordo rosso e sfondo bianco. Sono posti di norma a 150 m dal pericolo.", Order: 1},
	{ID: "l2", SectionID: "s1", TitleAr: "إشارات المنعطفات والطريق الزلق", TitleIt: "Segnali di curve e strada sdrucciolevole", ContentAr: "إشارة المنعطف الخطير تحذر من وجود منعطف حاد. إشارة الطريق الزلق تحذر من أن الطريق قد يكون زلقاً خاصة في الأمطار. يجب تخفيف السرعة عند رؤية هذه الإشارات.", ContentIt: "Il segnale di curva pericolosa avverte di una curva stretta. Il segnale di strada sdrucciolevole avverte che la strada può essere scivolosa specialmente con la pioggia.", Order: 2},
	{ID: "l3", SectionID: "s2", TitleAr: "مقدمة في إشارات المنع", TitleIt: "Introduzione ai segnali di divieto", ContentAr: "إشارات المنع دائرية الشكل بحافة حمراء وخلفية بيضاء. تدل على أفعال ممنوعة على الطريق مثل منع الدخول أو منع التجاوز أو تحديد السرعة القصوى.", ContentIt: "I segnali di divieto sono circolari con bordo rosso e sfondo bianco. Indicano azioni vietate sulla strada come divieto di accesso, sorpasso o limiti di velocità.", Order: 1},
	{ID: "l4", SectionID: "s3", TitleAr: "مقدمة في إشارات الإلزام", TitleIt: "Introduzione ai segnali d'obbligo", ContentAr: "إشارات الإلزام دائرية زرقاء مع رموز بيضاء. تلزم السائق بفعل معين مثل الاتجاه الإجباري أو استخدام سلاسل الثلج.", ContentIt: "I segnali d'obbligo sono circolari blu con simboli bianchi. Obbligano il conducente a un comportamento specifico.", Order: 1},
	{ID: "l5", SectionID: "s4", TitleAr: "قواعد الأولوية", TitleIt: "Regole di precedenza", ContentAr: "في التقاطعات بدون إشارات، الأولوية للقادم من اليمين. إشارة STOP تلزم بالتوقف التام. المثلث المقلوب يعني إعطاء الأولوية.", ContentIt: "Negli incroci senza segnali, la precedenza è a chi viene da destra. Lo STOP obbliga alla fermata completa.", Order: 1},
	{ID: "l6", SectionID: "s5", TitleAr: "حدود السرعة في إيطاليا", TitleIt: "Limiti di velocità in Italia", ContentAr: "داخل المدينة 50 كم/س، طرق خارجية ثانوية 90 كم/س، طرق خارجية رئيسية 110 كم/س، أوتوسترادا 130 كم/س. في المطر تنخفض الحدود.", ContentIt: "Centro abitato 50 km/h, extraurbane secondarie 90 km/h, extraurbane principali 110 km/h, autostrada 130 km/h.", Order: 1},
}

var seedQuestions = []models.Question{
	{ID: "q1", LessonID: "l1", SectionID: "s1", QuestionAr: "إشارات الخطر لها شكل مثلث بحافة حمراء وخلفية بيضاء", QuestionIt: "I segnali di pericolo hanno forma triangolare con bordo rosso e sfondo bianco", IsTrue: true, ExplanationAr: "صحيح. جميع إشارات الخطر مثلثية الشكل", ExplanationIt: "Vero. Tutti i segnali di pericolo sono triangolari", Difficulty: "easy", Order: 1},
	{ID: "q2", LessonID: "l1", SectionID: "s1", QuestionAr: "توضع إشارات الخطر عادة على بعد 50 متراً من الخطر", QuestionIt: "I segnali di pericolo sono posti di norma a 50 m dal pericolo", IsTrue: false, ExplanationAr: "خطأ. توضع على بعد 150 متراً وليس 50", ExplanationIt: "Falso. Sono posti a 150 m, non 50", Difficulty: "medium", Order: 2},
	{ID: "q3", LessonID: "l1", SectionID: "s1", QuestionAr: "عند رؤية إشارة خطر يجب زيادة السرعة لتجاوز الخطر بسرعة", QuestionIt: "Vedendo un segnale di pericolo bisogna aumentare la velocità per superare il pericolo velocemente", IsTrue: false, ExplanationAr: "خطأ. يجب تخفيف السرعة وزيادة الانتباه", ExplanationIt: "Falso. Bisogna rallentare e aumentare l'attenzione", Difficulty: "easy", Order: 3},
	{ID: "q4", LessonID: "l1", SectionID: "s1", QuestionAr: "إشارة الأطفال تحذر من احتمال وجود أطفال بالقرب من مدرسة", QuestionIt: "Il segnale bambini avverte della possibile presenza di bambini vicino a scuole", IsTrue: true, ExplanationAr: "صحيح. هذه الإشارة تنبه لوجود أطفال", ExplanationIt: "Vero. Questo segnale avverte della presenza di bambini", Difficulty: "easy", Order: 4},
	{ID: "q5", LessonID: "l2", SectionID: "s1", QuestionAr: "إشارة الطريق الزلق تعني أنه يجب زيادة السرعة", QuestionIt: "Il segnale strada sdrucciolevole significa che bisogna aumentare la velocità", IsTrue: false, ExplanationAr: "خطأ. يجب تخفيف السرعة لأن الطريق زلق", ExplanationIt: "Falso. Bisogna rallentare perché la strada è scivolosa", Difficulty: "easy", Order: 1},
	{ID: "q6", LessonID: "l2", SectionID: "s1", QuestionAr: "إشارة المنعطف الخطير تحذر من وجود منعطف حاد أمامك", QuestionIt: "Il segnale di curva pericolosa avverte di una curva stretta avanti", IsTrue: true, ExplanationAr: "صحيح. هذه الإشارة تحذر من منعطف خطير", ExplanationIt: "Vero. Avverte di una curva pericolosa", Difficulty: "easy", Order: 2},
	{ID: "q7", LessonID: "l3", SectionID: "s2", QuestionAr: "إشارات المنع دائرية بحافة حمراء وخلفية بيضاء", QuestionIt: "I segnali di divieto sono circolari con bordo rosso e sfondo bianco", IsTrue: true, ExplanationAr: "صحيح", ExplanationIt: "Vero", Difficulty: "easy", Order: 1},
	{ID: "q8", LessonID: "l3", SectionID: "s2", QuestionAr: "إشارة ممنوع الدخول تسمح بالدخول للدراجات فقط", QuestionIt: "Il divieto di accesso permette l'accesso solo alle biciclette", IsTrue: false, ExplanationAr: "خطأ. ممنوع الدخول لجميع المركبات", ExplanationIt: "Falso. Vieta l'accesso a tutti i veicoli", Difficulty: "medium", Order: 2},
	{ID: "q9", LessonID: "l3", SectionID: "s2", QuestionAr: "إشارة حد السرعة 50 تعني أنه لا يمكن تجاوز 50 كم/س", QuestionIt: "Il limite di velocità 50 significa che non si può superare 50 km/h", IsTrue: true, ExplanationAr: "صحيح. هذه الإشارة تحدد الحد الأقصى للسرعة", ExplanationIt: "Vero. Indica il limite massimo di velocità", Difficulty: "easy", Order: 3},
	{ID: "q10", LessonID: "l4", SectionID: "s3", QuestionAr: "إشارات الإلزام دائرية زرقاء مع رموز بيضاء", QuestionIt: "I segnali d'obbligo sono circolari blu con simboli bianchi", IsTrue: true, ExplanationAr: "صحيح", ExplanationIt: "Vero", Difficulty: "easy", Order: 1},
	{ID: "q11", LessonID: "l4", SectionID: "s3", QuestionAr: "إشارة الاتجاه الإجباري للأمام تسمح بالانعطاف", QuestionIt: "Il segnale direzione obbligatoria dritto permette di svoltare", IsTrue: false, ExplanationAr: "خطأ. يجب المتابعة للأمام فقط", ExplanationIt: "Falso. Si deve proseguire dritto", Difficulty: "easy", Order: 2},
	{ID: "q12", LessonID: "l5", SectionID: "s4", QuestionAr: "في تقاطع بدون إشارات الأولوية للقادم من اليمين", QuestionIt: "In un incrocio senza segnali la precedenza è a chi viene da destra", IsTrue: true, ExplanationAr: "صحيح. القاعدة العامة هي الأولوية لليمين", ExplanationIt: "Vero. La regola generale è precedenza a destra", Difficulty: "easy", Order: 1},
	{ID: "q13", LessonID: "l5", SectionID: "s4", QuestionAr: "عند إشارة STOP يمكنك المرور بدون توقف إذا لم تكن هناك مركبات", QuestionIt: "Al segnale STOP puoi passare senza fermarti se non ci sono veicoli", IsTrue: false, ExplanationAr: "خطأ. يجب التوقف تماماً دائماً", ExplanationIt: "Falso. Bisogna sempre fermarsi completamente", Difficulty: "medium", Order: 2},
	{ID: "q14", LessonID: "l6", SectionID: "s5", QuestionAr: "الحد الأقصى للسرعة داخل المدينة هو 50 كم/س", QuestionIt: "Il limite di velocità nei centri abitati è 50 km/h", IsTrue: true, ExplanationAr: "صحيح. ما لم تكن هناك إشارة أخرى", ExplanationIt: "Vero. Salvo diversa indicazione", Difficulty: "easy", Order: 1},
	{ID: "q15", LessonID: "l6", SectionID: "s5", QuestionAr: "الحد الأقصى على الأوتوسترادا هو 150 كم/س", QuestionIt: "Il limite in autostrada è 150 km/h", IsTrue: false, ExplanationAr: "خطأ. الحد هو 130 كم/س", ExplanationIt: "Falso. Il limite è 130 km/h", Difficulty: "easy", Order: 2},
	{ID: "q16", LessonID: "l6", SectionID: "s5", QuestionAr: "في حالة المطر ينخفض حد السرعة على الأوتوسترادا إلى 110 كم/س", QuestionIt: "Con pioggia il limite in autostrada scende a 110 km/h", IsTrue: true, ExplanationAr: "صحيح", ExplanationIt: "Vero", Difficulty: "medium", Order: 3},
}

var seedSigns = []models.Sign{
	{ID: "sg1", NameAr: "خطر عام", NameIt: "Pericolo generico", DescriptionAr: "إشارة تحذير عامة من خطر غير محدد", DescriptionIt: "Segnale di avvertimento generico", Category: "pericolo", Order: 1},
	{ID: "sg2", NameAr: "منعطف خطير", NameIt: "Curva pericolosa", DescriptionAr: "تحذير من منعطف حاد", DescriptionIt: "Avverte di curva stretta", Category: "pericolo", Order: 2},
	{ID: "sg3", NameAr: "ممنوع الدخول", NameIt: "Divieto di accesso", DescriptionAr: "ممنوع دخول جميع المركبات", DescriptionIt: "Vietato l'accesso a tutti i veicoli", Category: "divieto", Order: 1},
	{ID: "sg4", NameAr: "ممنوع التجاوز", NameIt: "Divieto di sorpasso", DescriptionAr: "ممنوع تجاوز المركبات", DescriptionIt: "Vietato il sorpasso", Category: "divieto", Order: 2},
	{ID: "sg5", NameAr: "اتجاه إجباري", NameIt: "Direzione obbligatoria", DescriptionAr: "يجب المتابعة في الاتجاه المشار إليه", DescriptionIt: "Obbligo di seguire la direzione indicata", Category: "obbligo", Order: 1},
}

var seedDictSections = []models.DictionarySection{
	{ID: "ds1", NameAr: "مصطلحات أساسية", NameIt: "Termini base", Icon: "menu_book", Order: 1},
	{ID: "ds2", NameAr: "أجزاء السيارة", NameIt: "Parti del veicolo", Icon: "directions_car", Order: 2},
	{ID: "ds3", NameAr: "أنواع الطرق", NameIt: "Tipi di strade", Icon: "road", Order: 3},
}

var seedDictEntries = []models.DictionaryEntry{
	{ID: "de1", SectionID: "ds1", TermIt: "Patente", TermAr: "رخصة القيادة", DefinitionIt: "Documento che abilita alla guida", DefinitionAr: "وثيقة تخول حاملها قيادة المركبات", Order: 1},
	{ID: "de2", SectionID: "ds1", TermIt: "Segnale", TermAr: "إشارة", DefinitionIt: "Indicazione stradale visiva", DefinitionAr: "علامة مرورية بصرية", Order: 2},
	{ID: "de3", SectionID: "ds1", TermIt: "Precedenza", TermAr: "أولوية المرور", DefinitionIt: "Diritto di passare prima", DefinitionAr: "حق المرور أولاً", Order: 3},
	{ID: "de4", SectionID: "ds1", TermIt: "Sorpasso", TermAr: "التجاوز", DefinitionIt: "Superare un altro veicolo", DefinitionAr: "تخطي مركبة أخرى", Order: 4},
	{ID: "de5", SectionID: "ds2", TermIt: "Freno", TermAr: "فرامل", DefinitionIt: "Dispositivo per rallentare o fermare", DefinitionAr: "جهاز لإبطاء أو إيقاف المركبة", Order: 1},
	{ID: "de6", SectionID: "ds2", TermIt: "Volante", TermAr: "مقود", DefinitionIt: "Dispositivo per sterzare", DefinitionAr: "جهاز لتوجيه المركبة", Order: 2},
	{ID: "de7", SectionID: "ds2", TermIt: "Pneumatico", TermAr: "إطار", DefinitionIt: "Rivestimento esterno della ruota", DefinitionAr: "الغلاف الخارجي للعجلة", Order: 3},
	{ID: "de8", SectionID: "ds3", TermIt: "Autostrada", TermAr: "طريق سريع", DefinitionIt: "Strada riservata alla circolazione veloce", DefinitionAr: "طريق مخصص للسير السريع", Order: 1},
	{ID: "de9", SectionID: "ds3", TermIt: "Centro abitato", TermAr: "داخل المدينة", DefinitionIt: "Zona urbanizzata con edifici", DefinitionAr: "منطقة حضرية بها مباني", Order: 2},
	{ID: "de10", SectionID: "ds3", TermIt: "Rotatoria", TermAr: "دوار", DefinitionIt: "Intersezione a circolazione rotatoria", DefinitionAr: "تقاطع بحركة دائرية", Order: 3},
}
